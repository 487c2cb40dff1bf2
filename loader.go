// FILE: lixenwraith/presets/loader.go
package presets

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	keyPresets = "presets"
	keyAddons  = "addons"
)

// HostOptions are the options of the host pass, visible to every callable preset
// and merged into every extension function's combined options.
type HostOptions struct {
	// ConfigDir is the base directory addon and module specifiers resolve from
	ConfigDir string
	// Critical turns contained per-specifier failures into a returned CriticalPresetError
	Critical bool
	// DisabledAddons skips addon entries whose name contains any of these substrings
	DisabledAddons []string
	// Values holds arbitrary host options
	Values map[string]any
}

// Map flattens the host options into the host part of combined options
func (h *HostOptions) Map() map[string]any {
	if h == nil {
		return make(map[string]any)
	}
	m := make(map[string]any, len(h.Values)+1)
	maps.Copy(m, h.Values)
	m["configDir"] = h.ConfigDir
	return m
}

// LoadedPreset is one entry of the flat, ordered preset list.
// Preset holds the loaded contents without the presets and addons keys.
type LoadedPreset struct {
	Name    string
	Preset  map[string]any
	Options map[string]any
}

// LoaderOptions configures a Loader
type LoaderOptions struct {
	// Addons resolves addon specifiers. Default: file system resolver.
	Addons *AddonResolver
	// Modules imports named preset modules. Default: DefaultModuleLoader.
	Modules ModuleLoader
	// Logger receives load warnings and errors. Default: NewLogger().
	Logger logrus.FieldLogger
	// MaxConcurrency limits sibling specifiers loaded at once per list (0 = unlimited)
	MaxConcurrency int
}

// Loader expands specifier lists into flat, ordered LoadedPreset lists
type Loader struct {
	host           *HostOptions
	addons         *AddonResolver
	modules        ModuleLoader
	logger         logrus.FieldLogger
	maxConcurrency int
}

// NewLoader creates a Loader for one host pass
func NewLoader(host *HostOptions, opts LoaderOptions) *Loader {
	if host == nil {
		host = &HostOptions{}
	}
	l := &Loader{
		host:           host,
		addons:         opts.Addons,
		modules:        opts.Modules,
		logger:         opts.Logger,
		maxConcurrency: opts.MaxConcurrency,
	}
	if l.addons == nil {
		l.addons = NewAddonResolver(nil)
	}
	if l.modules == nil {
		l.modules = DefaultModuleLoader(host.ConfigDir, l.addons.adapter)
	}
	if l.logger == nil {
		l.logger = NewLogger()
	}
	return l
}

// Load expands specs at depth 0 and returns the composed presets
func (l *Loader) Load(ctx context.Context, specs []Specifier) (*Presets, error) {
	loaded, err := l.LoadPresets(ctx, specs, 0)
	if err != nil {
		return nil, err
	}
	return NewPresets(loaded, l.host), nil
}

// LoadPresets loads each specifier and concatenates the results in input order.
// Siblings load concurrently; completion order never affects the result order.
// An error is returned only for critical passes.
func (l *Loader) LoadPresets(ctx context.Context, specs []Specifier, depth int) ([]LoadedPreset, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	results := make([][]LoadedPreset, len(specs))
	group, groupCtx := errgroup.WithContext(ctx)
	if l.maxConcurrency > 0 {
		group.SetLimit(l.maxConcurrency)
	}

	for i, spec := range specs {
		i, spec := i, spec
		group.Go(func() error {
			loaded, err := l.LoadPreset(groupCtx, spec, depth)
			if err != nil {
				return err
			}
			results[i] = loaded
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var flat []LoadedPreset
	for _, loaded := range results {
		flat = append(flat, loaded...)
	}
	return flat, nil
}

// LoadPreset loads a single specifier into zero or more LoadedPresets; nested
// presets and addons precede the specifier's own entry. Failures are logged and
// contained here unless the pass is critical.
func (l *Loader) LoadPreset(ctx context.Context, spec Specifier, depth int) ([]LoadedPreset, error) {
	loaded, err := l.loadPreset(ctx, spec, depth)
	if err == nil {
		return loaded, nil
	}

	var critical *CriticalPresetError
	if errors.As(err, &critical) {
		return nil, err
	}
	if l.host.Critical {
		return nil, &CriticalPresetError{Specifier: spec.String(), Depth: depth, Err: err}
	}

	entry := l.logger.WithFields(logrus.Fields{
		"specifier": spec.String(),
		"depth":     depth,
	})
	if depth > 0 {
		entry.Warnf("Failed to load preset: %s on level %d", spec, depth)
	} else {
		entry.Warnf("Failed to load preset: %s", spec)
	}
	entry.WithError(err).Error("preset load failed")
	return nil, nil
}

func (l *Loader) loadPreset(ctx context.Context, spec Specifier, depth int) ([]LoadedPreset, error) {
	if spec.parseErr != nil {
		return nil, spec.parseErr
	}

	options := spec.Options
	if options == nil {
		options = make(map[string]any)
	}

	// 1-2. Obtain contents
	var contents any
	switch spec.Kind {
	case KindModule:
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: module specifier without name", ErrInvalidSpecifier)
		}
		imported, err := l.modules.ImportDefault(ctx, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to import preset %q: %w", spec.Name, err)
		}
		contents = imported
	case KindInline:
		contents = spec.Value
	case KindFactory:
		if spec.Factory == nil {
			return nil, fmt.Errorf("%w: factory specifier without function", ErrInvalidSpecifier)
		}
		contents = spec.Factory
	case KindList:
		return l.LoadPresets(ctx, spec.List, depth+1)
	case KindVirtual:
		if spec.Addon == nil {
			return nil, fmt.Errorf("%w: virtual specifier without addon", ErrInvalidSpecifier)
		}
		contents = spec.Addon.contents()
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrInvalidSpecifier, spec.Kind)
	}

	// 3. Callable contents
	if fn, ok := asPresetFunc(contents); ok {
		produced, err := fn(l.host, options)
		if err != nil {
			return nil, err
		}
		if contents, err = await(ctx, produced); err != nil {
			return nil, err
		}
	}

	// 4. Sequence: the specifier contributes no entry of its own
	if items, ok := asSequence(contents); ok {
		return l.LoadPresets(ctx, l.parseEach(items), depth+1)
	}

	// 5. Keyed structure
	keyed, ok := contents.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s (got %T)", ErrInvalidPreset, spec, contents)
	}

	rest := make(map[string]any, len(keyed))
	for k, v := range keyed {
		if k != keyPresets && k != keyAddons {
			rest[k] = v
		}
	}

	subPresets, err := expandList(keyed[keyPresets], options)
	if err != nil {
		return nil, fmt.Errorf("invalid %s list: %w", keyPresets, err)
	}
	subAddons, err := expandList(keyed[keyAddons], options)
	if err != nil {
		return nil, fmt.Errorf("invalid %s list: %w", keyAddons, err)
	}

	presetsLoaded, err := l.LoadPresets(ctx, l.parseEach(subPresets), depth+1)
	if err != nil {
		return nil, err
	}
	addonsLoaded, err := l.LoadPresets(ctx, l.resolveAddons(subAddons), depth+1)
	if err != nil {
		return nil, err
	}

	result := make([]LoadedPreset, 0, len(presetsLoaded)+len(addonsLoaded)+1)
	result = append(result, presetsLoaded...)
	result = append(result, addonsLoaded...)
	result = append(result, LoadedPreset{Name: spec.Name, Preset: rest, Options: options})
	return result, nil
}

// parseEach converts raw list items into specifiers. Items that fail to parse
// are kept as failing specifiers so the failure is reported in place.
func (l *Loader) parseEach(items []any) []Specifier {
	specs := make([]Specifier, 0, len(items))
	for _, raw := range items {
		spec, err := ParseSpecifier(raw)
		if err != nil {
			spec = Specifier{Kind: KindInline, Name: fmt.Sprintf("%v", raw), parseErr: err}
		}
		specs = append(specs, spec)
	}
	return specs
}

// resolveAddons filters disabled addons and resolves the rest through the addon resolver.
// Unresolvable addons are dropped with a warning.
func (l *Loader) resolveAddons(items []any) []Specifier {
	specs := make([]Specifier, 0, len(items))
	for _, raw := range items {
		name := specifierName(raw)
		if l.addonDisabled(name) {
			l.logger.WithField("addon", name).Debug("addon disabled, skipping")
			continue
		}

		spec, err := ParseSpecifier(raw)
		if err != nil {
			l.logger.WithError(err).Errorf("Addon value should end in /manager or /preview or /register OR it should be a valid preset: %v", raw)
			continue
		}
		if spec.Kind != KindModule {
			specs = append(specs, spec)
			continue
		}

		resolved, err := l.addons.Resolve(l.host.ConfigDir, spec.Name, spec.Options)
		if err != nil {
			if errors.Is(err, ErrAddonNotResolved) {
				l.logger.WithField("addon", spec.Name).Warnf("Could not resolve addon %q, skipping. Is it installed?", spec.Name)
			} else {
				l.logger.WithError(err).Errorf("Addon value should end in /manager or /preview or /register OR it should be a valid preset: %v", raw)
			}
			continue
		}

		resolvedSpec, err := ParseSpecifier(resolved)
		if err != nil {
			l.logger.WithError(err).Errorf("invalid addon resolution for %q", spec.Name)
			continue
		}
		specs = append(specs, resolvedSpec)
	}
	return specs
}

func (l *Loader) addonDisabled(name string) bool {
	if l.host.Critical || name == "" {
		return false
	}
	for _, disabled := range l.host.DisabledAddons {
		if disabled != "" && strings.Contains(name, disabled) {
			return true
		}
	}
	return false
}

// expandList normalizes a presets or addons value: nil, a list, or a list function
func expandList(v any, options map[string]any) ([]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case ListFunc:
		return list(options)
	case func(map[string]any) ([]any, error):
		return list(options)
	}
	if items, ok := asSequence(v); ok {
		return items, nil
	}
	return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidSpecifier, v)
}

// asSequence reports whether v is a preset sequence and returns its items
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []Specifier:
		items := make([]any, len(s))
		for i := range s {
			items[i] = s[i]
		}
		return items, true
	case []string:
		items := make([]any, len(s))
		for i := range s {
			items[i] = s[i]
		}
		return items, true
	case []map[string]any:
		items := make([]any, len(s))
		for i := range s {
			items[i] = s[i]
		}
		return items, true
	}
	return nil, false
}
