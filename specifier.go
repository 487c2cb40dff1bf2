// FILE: lixenwraith/presets/specifier.go
package presets

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// SpecifierKind tags the Specifier union
type SpecifierKind int

const (
	// KindModule names a module whose default export is the preset
	KindModule SpecifierKind = iota
	// KindInline carries the preset contents directly
	KindInline
	// KindFactory produces the contents from host and preset options
	KindFactory
	// KindList expands to a list of nested specifiers
	KindList
	// KindVirtual wraps an addon resolved to direct entry files
	KindVirtual
)

func (k SpecifierKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindInline:
		return "inline"
	case KindFactory:
		return "factory"
	case KindList:
		return "list"
	case KindVirtual:
		return "virtual"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PresetFunc is callable preset contents. It receives the host options and the
// options the preset was declared with, and returns the effective contents.
type PresetFunc func(host *HostOptions, options map[string]any) (any, error)

// ListFunc computes a preset's nested presets or addons list from its options
type ListFunc func(options map[string]any) ([]any, error)

// Specifier is one entry of a preset list, normalized to a tagged union
type Specifier struct {
	Kind    SpecifierKind
	Name    string
	Options map[string]any
	Value   any
	Factory PresetFunc
	List    []Specifier
	Addon   *ResolvedAddon

	// parseErr marks a list item that could not be parsed; loading it reports the error
	parseErr error
}

// Named refers to a preset module by name or path
func Named(name string) Specifier {
	return Specifier{Kind: KindModule, Name: name}
}

// WithOptions refers to a preset module and the options it is loaded with
func WithOptions(name string, options map[string]any) Specifier {
	return Specifier{Kind: KindModule, Name: name, Options: options}
}

// Inline supplies preset contents directly. The name is used in logs and LoadedPreset records.
func Inline(name string, value any) Specifier {
	return Specifier{Kind: KindInline, Name: name, Value: value}
}

// Factory supplies a function producing the preset contents
func Factory(name string, fn PresetFunc, options map[string]any) Specifier {
	return Specifier{Kind: KindFactory, Name: name, Factory: fn, Options: options}
}

// List groups nested specifiers
func List(items ...Specifier) Specifier {
	return Specifier{Kind: KindList, List: items}
}

// Virtual wraps a resolved addon so the loader uses its entry files as contents
func Virtual(addon *ResolvedAddon) Specifier {
	return Specifier{Kind: KindVirtual, Name: addon.Name, Addon: addon}
}

// String renders the specifier for log messages
func (s Specifier) String() string {
	switch s.Kind {
	case KindList:
		return fmt.Sprintf("list(%d)", len(s.List))
	case KindModule:
		if len(s.Options) == 0 {
			return s.Name
		}
		if opts, err := json.Marshal(s.Options); err == nil {
			return fmt.Sprintf("%s %s", s.Name, opts)
		}
		return s.Name
	default:
		if s.Name == "" {
			return s.Kind.String()
		}
		return fmt.Sprintf("%s(%s)", s.Kind, s.Name)
	}
}

// ParseSpecifier normalizes a raw value, as found in a preset's presets or
// addons list or a decoded config file, into a Specifier. Accepted shapes:
// a string, a {name, options} map, a list, a PresetFunc, a *ResolvedAddon,
// or a Specifier.
func ParseSpecifier(v any) (Specifier, error) {
	switch s := v.(type) {
	case Specifier:
		return s, nil
	case *Specifier:
		if s == nil {
			return Specifier{}, fmt.Errorf("%w: nil specifier", ErrInvalidSpecifier)
		}
		return *s, nil
	case string:
		if s == "" {
			return Specifier{}, fmt.Errorf("%w: empty name", ErrInvalidSpecifier)
		}
		return Named(s), nil
	case *ResolvedAddon:
		if s == nil {
			return Specifier{}, fmt.Errorf("%w: nil addon", ErrInvalidSpecifier)
		}
		if s.Kind == AddonPresets {
			return WithOptions(s.Name, s.Options), nil
		}
		return Virtual(s), nil
	case PresetFunc, func(*HostOptions, map[string]any) (any, error),
		func(map[string]any) (any, error), func() (any, error):
		fn, _ := asPresetFunc(s)
		return Factory("", fn, nil), nil
	case []Specifier:
		return List(s...), nil
	case []string:
		items := make([]Specifier, 0, len(s))
		for _, name := range s {
			item, err := ParseSpecifier(name)
			if err != nil {
				return Specifier{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case []any:
		items := make([]Specifier, 0, len(s))
		for _, raw := range s {
			item, err := ParseSpecifier(raw)
			if err != nil {
				return Specifier{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case map[string]any:
		return parseObjectSpecifier(s)
	}
	return Specifier{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidSpecifier, v)
}

// objectSpecifier is the {name, options} shape
type objectSpecifier struct {
	Name    string         `mapstructure:"name"`
	Options map[string]any `mapstructure:"options"`
}

func parseObjectSpecifier(raw map[string]any) (Specifier, error) {
	var obj objectSpecifier
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &obj,
		ErrorUnused: false,
	})
	if err != nil {
		return Specifier{}, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Specifier{}, fmt.Errorf("%w: %w", ErrInvalidSpecifier, err)
	}
	if obj.Name == "" {
		return Specifier{}, fmt.Errorf("%w: object specifier without name", ErrInvalidSpecifier)
	}
	return WithOptions(obj.Name, obj.Options), nil
}

// specifierName returns the name used for addon filtering and legacy detection
func specifierName(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case Specifier:
		return s.Name
	case *Specifier:
		if s != nil {
			return s.Name
		}
	case map[string]any:
		name, _ := s["name"].(string)
		return name
	}
	return ""
}

// asPresetFunc recognizes the callable shapes preset contents may take.
// Zero- and one-argument functions are accepted alongside PresetFunc.
func asPresetFunc(v any) (PresetFunc, bool) {
	switch fn := v.(type) {
	case PresetFunc:
		return fn, fn != nil
	case func(*HostOptions, map[string]any) (any, error):
		return fn, fn != nil
	case func(map[string]any) (any, error):
		if fn == nil {
			return nil, false
		}
		return func(_ *HostOptions, options map[string]any) (any, error) { return fn(options) }, true
	case func() (any, error):
		if fn == nil {
			return nil, false
		}
		return func(*HostOptions, map[string]any) (any, error) { return fn() }, true
	}
	return nil, false
}
