// FILE: lixenwraith/presets/apply.go
package presets

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Well-known extension points fed by virtual addons
const (
	ExtManagerEntries     = "managerEntries"
	ExtPreviewAnnotations = "previewAnnotations"
)

// ExtensionFunc is a function contribution to an extension point. acc is the
// result folded from all earlier presets; the returned value (awaited if it
// is Deferred) becomes the new accumulator.
type ExtensionFunc func(ctx context.Context, acc any, x *ExtensionContext) (any, error)

// Deferred is a value that becomes available later
type Deferred interface {
	Await(ctx context.Context) (any, error)
}

type future struct {
	done  chan struct{}
	value any
	err   error
}

// Defer runs fn in its own goroutine and returns its eventual result
func Defer(fn func() (any, error)) Deferred {
	f := &future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

func (f *future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// await resolves v until it is no longer Deferred
func await(ctx context.Context, v any) (any, error) {
	for {
		d, ok := v.(Deferred)
		if !ok {
			return v, nil
		}
		var err error
		if v, err = d.Await(ctx); err != nil {
			return nil, err
		}
	}
}

// ExtensionContext is passed to every function contribution
type ExtensionContext struct {
	// Key is the extension point being folded
	Key string
	// Preset is the name of the contributing preset
	Preset string
	// Options merges host options, call args, and the preset's own options, in that precedence order
	Options map[string]any
	// Presets is the full ordered list the fold runs over
	Presets []LoadedPreset

	presets *Presets
}

// Apply folds another extension point over the same preset list
func (x *ExtensionContext) Apply(ctx context.Context, key string, seed any, args map[string]any) (any, error) {
	return x.presets.Apply(ctx, key, seed, args)
}

// Presets is the result of a load pass: an immutable ordered preset list
type Presets struct {
	list []LoadedPreset
	host *HostOptions
}

// NewPresets wraps an ordered list for applying extensions
func NewPresets(list []LoadedPreset, host *HostOptions) *Presets {
	if host == nil {
		host = &HostOptions{}
	}
	return &Presets{list: slices.Clone(list), host: host}
}

// List returns a copy of the loaded presets in application order
func (p *Presets) List() []LoadedPreset {
	return slices.Clone(p.list)
}

// Len returns the number of loaded presets
func (p *Presets) Len() int {
	return len(p.list)
}

// Apply folds every preset's contribution to key, left to right, starting from seed.
// An empty list returns seed unchanged. Errors from function contributions abort the fold.
func (p *Presets) Apply(ctx context.Context, key string, seed any, args map[string]any) (any, error) {
	acc := seed
	for _, loaded := range p.list {
		contribution, ok := loaded.Preset[key]
		if !ok || contribution == nil {
			continue
		}

		if fn, ok := asExtensionFunc(contribution); ok {
			out, err := fn(ctx, acc, p.contextFor(key, loaded, args))
			if err == nil {
				out, err = await(ctx, out)
			}
			if err != nil {
				return nil, fmt.Errorf("extension %q of preset %q failed: %w", key, loaded.Name, err)
			}
			acc = out
			continue
		}
		if fv := reflect.ValueOf(contribution); fv.Kind() == reflect.Func {
			if fv.IsNil() {
				continue
			}
			return nil, fmt.Errorf("extension %q of preset %q: %w: %T", key, loaded.Name, ErrUnsupportedExtension, contribution)
		}

		merged, err := Merge(acc, contribution)
		if err != nil {
			return nil, fmt.Errorf("extension %q of preset %q: %w", key, loaded.Name, err)
		}
		acc = cloneShallow(merged, contribution)
	}
	return acc, nil
}

// ManagerEntries folds the manager entry files contributed by all presets
func (p *Presets) ManagerEntries(ctx context.Context) ([]string, error) {
	result, err := p.Apply(ctx, ExtManagerEntries, []any{}, nil)
	if err != nil {
		return nil, err
	}
	items, ok := asSequence(result)
	if !ok {
		return nil, fmt.Errorf("extension %q produced %T, expected a list", ExtManagerEntries, result)
	}

	entries := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("extension %q entry has type %T, expected string", ExtManagerEntries, item)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PreviewAnnotations folds the preview annotations contributed by all presets.
// Bare string entries become annotations without an absolute path.
func (p *Presets) PreviewAnnotations(ctx context.Context) ([]PreviewAnnotation, error) {
	result, err := p.Apply(ctx, ExtPreviewAnnotations, []any{}, nil)
	if err != nil {
		return nil, err
	}
	items, ok := asSequence(result)
	if !ok {
		return nil, fmt.Errorf("extension %q produced %T, expected a list", ExtPreviewAnnotations, result)
	}

	annotations := make([]PreviewAnnotation, 0, len(items))
	for _, item := range items {
		switch a := item.(type) {
		case PreviewAnnotation:
			annotations = append(annotations, a)
		case string:
			annotations = append(annotations, PreviewAnnotation{Bare: a})
		default:
			var annotation PreviewAnnotation
			if err := decodeInto(item, &annotation); err != nil {
				return nil, fmt.Errorf("invalid %q entry: %w", ExtPreviewAnnotations, err)
			}
			annotations = append(annotations, annotation)
		}
	}
	return annotations, nil
}

func (p *Presets) contextFor(key string, loaded LoadedPreset, args map[string]any) *ExtensionContext {
	options := p.host.Map()
	maps.Copy(options, args)
	maps.Copy(options, loaded.Options)
	return &ExtensionContext{
		Key:     key,
		Preset:  loaded.Name,
		Options: options,
		Presets: slices.Clone(p.list),
		presets: p,
	}
}

// cloneShallow copies merged when it is the contribution itself, so later
// function contributions cannot modify a loaded preset through the accumulator
func cloneShallow(merged, contribution any) any {
	m, c := reflect.ValueOf(merged), reflect.ValueOf(contribution)
	switch m.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr:
	default:
		return merged
	}
	if m.Kind() != c.Kind() || m.Pointer() != c.Pointer() {
		return merged
	}
	switch m.Kind() {
	case reflect.Ptr:
		if m.IsNil() || m.Elem().Kind() != reflect.Struct {
			return merged
		}
		out := reflect.New(m.Elem().Type())
		out.Elem().Set(m.Elem())
		return out.Interface()
	case reflect.Map:
		if m.IsNil() {
			return merged
		}
		out := reflect.MakeMapWithSize(m.Type(), m.Len())
		iter := m.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	case reflect.Slice:
		if m.IsNil() {
			return merged
		}
		out := reflect.MakeSlice(m.Type(), m.Len(), m.Len())
		reflect.Copy(out, m)
		return out.Interface()
	}
	return merged
}

// asExtensionFunc recognizes the callable shapes an extension contribution may take
func asExtensionFunc(v any) (ExtensionFunc, bool) {
	switch fn := v.(type) {
	case ExtensionFunc:
		return fn, fn != nil
	case func(context.Context, any, *ExtensionContext) (any, error):
		return fn, fn != nil
	case func(any, *ExtensionContext) (any, error):
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, acc any, x *ExtensionContext) (any, error) { return fn(acc, x) }, true
	case func(any) (any, error):
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, acc any, _ *ExtensionContext) (any, error) { return fn(acc) }, true
	}
	return nil, false
}
