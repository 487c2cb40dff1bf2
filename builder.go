// File: lixenwraith/presets/builder.go
package presets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
)

// ValidatorFunc defines the signature for a function that can validate a loaded pass.
// It receives the composed *Presets and should return an error if validation fails.
type ValidatorFunc func(p *Presets) error

// Builder provides a fluent interface for assembling a load pass
type Builder struct {
	host           HostOptions
	core           []Specifier
	presets        []Specifier
	addons         []any
	overrides      []Specifier
	logger         logrus.FieldLogger
	resolver       Resolver
	modules        ModuleLoader
	registry       *Registry
	maxConcurrency int
	discovery      DiscoveryOptions
	err            error
	validators     []ValidatorFunc
}

// NewBuilder creates a new pass builder
func NewBuilder() *Builder {
	return &Builder{
		host:       HostOptions{Values: make(map[string]any)},
		discovery:  DefaultDiscoveryOptions(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithConfigDir sets the directory specifiers resolve from and the main config is discovered in
func (b *Builder) WithConfigDir(dir string) *Builder {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	b.host.ConfigDir = dir
	return b
}

// WithCorePresets appends presets loaded before everything else
func (b *Builder) WithCorePresets(specs ...any) *Builder {
	b.core = append(b.core, b.parse(specs)...)
	return b
}

// WithPresets appends user presets, loaded after the main config file
func (b *Builder) WithPresets(specs ...any) *Builder {
	b.presets = append(b.presets, b.parse(specs)...)
	return b
}

// WithAddons appends addon entries, loaded as one inline preset after the user presets
func (b *Builder) WithAddons(addons ...any) *Builder {
	b.addons = append(b.addons, addons...)
	return b
}

// WithOverridePresets appends presets loaded last
func (b *Builder) WithOverridePresets(specs ...any) *Builder {
	b.overrides = append(b.overrides, b.parse(specs)...)
	return b
}

// WithHostValue sets a host option visible to callable presets and extension functions
func (b *Builder) WithHostValue(key string, value any) *Builder {
	b.host.Values[key] = value
	return b
}

// WithCritical makes any preset load failure fail the whole pass
func (b *Builder) WithCritical(critical bool) *Builder {
	b.host.Critical = critical
	return b
}

// WithDisabledAddons skips addons whose name contains any of the given substrings
func (b *Builder) WithDisabledAddons(names ...string) *Builder {
	b.host.DisabledAddons = append(b.host.DisabledAddons, names...)
	return b
}

// WithLogger sets the logger receiving load warnings
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithResolver replaces the file system module resolver
func (b *Builder) WithResolver(r Resolver) *Builder {
	b.resolver = r
	return b
}

// WithModuleLoader replaces the module loader entirely
func (b *Builder) WithModuleLoader(m ModuleLoader) *Builder {
	b.modules = m
	return b
}

// WithRegistry chains a registry of Go-authored presets before the file loader.
// Ignored when WithModuleLoader is set.
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.registry = r
	return b
}

// WithMaxConcurrency limits sibling presets loaded at once (0 = unlimited)
func (b *Builder) WithMaxConcurrency(n int) *Builder {
	b.maxConcurrency = n
	return b
}

// WithMainDiscovery configures discovery of the main config file
func (b *Builder) WithMainDiscovery(opts DiscoveryOptions) *Builder {
	b.discovery = opts
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build loads the pass and returns the composed presets
func (b *Builder) Build(ctx context.Context) (*Presets, error) {
	p, _, err := b.build(ctx)
	return p, err
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild(ctx context.Context) *Presets {
	p, err := b.Build(ctx)
	if err != nil {
		panic(fmt.Sprintf("presets build failed: %v", err))
	}
	return p
}

// build loads the pass and reports the files it was composed from
func (b *Builder) build(ctx context.Context) (*Presets, []string, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	logger := b.logger
	if logger == nil {
		logger = NewLogger()
	}
	adapter := NewAdapter(b.resolver)
	modules := b.modules
	if modules == nil {
		modules = NewModuleLoader(b.registry, b.host.ConfigDir, adapter)
	}

	// Host options are copied so a running pass never observes later builder calls
	host := b.host
	host.Values = make(map[string]any, len(b.host.Values))
	for k, v := range b.host.Values {
		host.Values[k] = v
	}
	host.DisabledAddons = slices.Clone(b.host.DisabledAddons)

	mainPath, err := DiscoverMain(host.ConfigDir, b.discovery)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, nil, err
	}

	specs := b.passList(mainPath)
	specs = filterLegacyPresets(specs, logger)

	loader := NewLoader(&host, LoaderOptions{
		Addons:         NewAddonResolver(adapter),
		Modules:        modules,
		Logger:         logger,
		MaxConcurrency: b.maxConcurrency,
	})
	p, err := loader.Load(ctx, specs)
	if err != nil {
		return nil, nil, err
	}

	// Run validators
	for _, validator := range b.validators {
		if err := validator(p); err != nil {
			return nil, nil, fmt.Errorf("presets validation failed: %w", err)
		}
	}

	return p, sourceFiles(p, mainPath, host.ConfigDir, adapter), nil
}

// passList orders core, main config, user, addon and override presets
func (b *Builder) passList(mainPath string) []Specifier {
	specs := make([]Specifier, 0, len(b.core)+len(b.presets)+len(b.overrides)+2)
	specs = append(specs, b.core...)
	if mainPath != "" {
		specs = append(specs, Named(mainPath))
	}
	specs = append(specs, b.presets...)
	if len(b.addons) > 0 {
		specs = append(specs, Inline("addons", map[string]any{keyAddons: slices.Clone(b.addons)}))
	}
	specs = append(specs, b.overrides...)
	return specs
}

// parse converts raw values to specifiers, keeping the first error for Build
func (b *Builder) parse(values []any) []Specifier {
	specs := make([]Specifier, 0, len(values))
	for _, v := range values {
		spec, err := ParseSpecifier(v)
		if err != nil {
			if b.err == nil {
				b.err = fmt.Errorf("invalid preset %v: %w", v, err)
			}
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

// sourceFiles lists the preset files a pass was loaded from, main config first
func sourceFiles(p *Presets, mainPath, configDir string, adapter *Adapter) []string {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	add(mainPath)
	for _, loaded := range p.List() {
		if loaded.Name == "" {
			continue
		}
		path, ok := adapter.ResolveGeneric(loaded.Name, configDir)
		if !ok || DetectFormat(path) == "" {
			continue
		}
		add(path)
	}
	return files
}
