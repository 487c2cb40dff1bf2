// FILE: lixenwraith/presets/module.go
package presets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleLoader imports the default export of a preset module
type ModuleLoader interface {
	ImportDefault(ctx context.Context, specifier string) (any, error)
}

// ModuleLoaderFunc adapts a function to the ModuleLoader interface
type ModuleLoaderFunc func(ctx context.Context, specifier string) (any, error)

func (f ModuleLoaderFunc) ImportDefault(ctx context.Context, specifier string) (any, error) {
	return f(ctx, specifier)
}

// Registry is an in-memory module loader for presets written in Go.
// Modules are keyed by name or by absolute file path.
type Registry struct {
	modules map[string]any
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]any)}
}

// Register makes value the default export of the module named name.
// Absolute paths are cleaned so they match resolver output.
func (r *Registry) Register(name string, value any) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if filepath.IsAbs(name) {
		name = filepath.Clean(name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.modules[name] = value
	return nil
}

// RegisterStruct registers a preset declared as a tagged struct. Fields are
// keyed by their `preset` tag (or field name); function-typed fields become
// extension contributions.
func (r *Registry) RegisterStruct(name string, preset any) error {
	contents, err := PresetFromStruct(preset)
	if err != nil {
		return fmt.Errorf("failed to register %q: %w", name, err)
	}
	return r.Register(name, contents)
}

// Unregister removes a module
func (r *Registry) Unregister(name string) {
	if filepath.IsAbs(name) {
		name = filepath.Clean(name)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.modules, name)
}

// ImportDefault implements ModuleLoader
func (r *Registry) ImportDefault(_ context.Context, specifier string) (any, error) {
	key := specifier
	if filepath.IsAbs(key) {
		key = filepath.Clean(key)
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	value, ok := r.modules[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	return value, nil
}

// PresetFromStruct converts a struct (or pointer to one) into preset contents
func PresetFromStruct(preset any) (map[string]any, error) {
	v := reflect.ValueOf(preset)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("PresetFromStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("PresetFromStruct requires a struct or struct pointer, got %T", preset)
	}

	contents := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &contents,
		TagName: "preset",
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(v.Interface()); err != nil {
		return nil, fmt.Errorf("failed to convert %T: %w", preset, err)
	}

	// Unset contributions are absent, not nil-valued
	for key, value := range contents {
		if isNilValue(value) {
			delete(contents, key)
		}
	}
	return contents, nil
}

// FileModuleLoader imports preset files (JSON, JSONC, YAML, TOML).
// Non-absolute specifiers are resolved with the node strategy from BaseDir.
type FileModuleLoader struct {
	BaseDir string
	Adapter *Adapter
}

// ImportDefault implements ModuleLoader
func (f *FileModuleLoader) ImportDefault(_ context.Context, specifier string) (any, error) {
	adapter := f.Adapter
	if adapter == nil {
		adapter = NewAdapter(nil)
	}

	path, ok := adapter.ResolveGeneric(specifier, f.BaseDir)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	if DetectFormat(path) == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return ReadFile(path)
}

// ChainLoader tries each loader in order; the first one that knows the module wins.
// A loader failing with anything other than ErrModuleNotFound stops the chain.
type ChainLoader []ModuleLoader

// ImportDefault implements ModuleLoader
func (c ChainLoader) ImportDefault(ctx context.Context, specifier string) (any, error) {
	var errs []error
	for _, loader := range c {
		value, err := loader.ImportDefault(ctx, specifier)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrModuleNotFound) {
			return nil, err
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	return nil, errors.Join(errs...)
}

// DefaultModuleLoader returns a loader for preset files relative to baseDir
func DefaultModuleLoader(baseDir string, adapter *Adapter) ModuleLoader {
	return &FileModuleLoader{BaseDir: baseDir, Adapter: adapter}
}

// NewModuleLoader chains a registry before the file loader, so Go-registered
// modules shadow files at the same path
func NewModuleLoader(registry *Registry, baseDir string, adapter *Adapter) ModuleLoader {
	if registry == nil {
		return DefaultModuleLoader(baseDir, adapter)
	}
	return ChainLoader{registry, registryByPath{registry, baseDir, adapter}, DefaultModuleLoader(baseDir, adapter)}
}

// registryByPath looks a specifier up in the registry after resolving it to a path
type registryByPath struct {
	registry *Registry
	baseDir  string
	adapter  *Adapter
}

func (r registryByPath) ImportDefault(ctx context.Context, specifier string) (any, error) {
	adapter := r.adapter
	if adapter == nil {
		adapter = NewAdapter(nil)
	}
	path, ok := adapter.ResolveGeneric(specifier, r.baseDir)
	if !ok || path == specifier {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, specifier)
	}
	return r.registry.ImportDefault(ctx, path)
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
