// File: lixenwraith/presets/doc.go

// Package presets composes configuration for a UI component dev tool from an
// ordered, recursively expanded list of presets and addons.
//
// A preset is a module (a preset file, a Go-registered value, or a factory
// function) that contributes values to named extension points. A preset may
// list further presets and addons; these are loaded before the preset itself,
// so the final list is a depth-first, order-preserving flattening.
//
// Features:
//   - Node-style module resolution with browser and node strategies and export maps
//   - Addon resolution into virtual UI entries or preset modules
//   - Concurrent sibling loading with deterministic ordering
//   - Per-preset failure containment, or critical passes that fail fast
//   - Left-fold application of extension points with merge or function contributions
//   - JSON, JSONC, YAML and TOML preset files
//   - Main config discovery and file watching
//
// Quick Start:
//
//	registry := presets.NewRegistry()
//	registry.Register("my-preset", map[string]any{
//	    "babel": map[string]any{"compact": true},
//	    "webpackFinal": presets.ExtensionFunc(func(ctx context.Context, acc any, x *presets.ExtensionContext) (any, error) {
//	        cfg := acc.(map[string]any)
//	        cfg["mode"] = "development"
//	        return cfg, nil
//	    }),
//	})
//
//	p, err := presets.NewBuilder().
//	    WithConfigDir(".storybook").
//	    WithRegistry(registry).
//	    WithPresets("my-preset").
//	    WithAddons("@storybook/addon-actions").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	webpack, err := p.Apply(ctx, "webpackFinal", map[string]any{}, nil)
//
// Pass Order:
//  1. Core presets
//  2. Main config file (main.json, main.yaml, main.toml, ...)
//  3. User presets
//  4. Addons
//  5. Override presets
//
// Merge Rules:
// Non-function contributions are merged into the accumulator. Slices
// concatenate, string-keyed maps and same-type structs merge shallowly with
// the contribution winning, and anything else is replaced.
//
// Thread Safety:
// A *Presets is immutable after loading and may be applied concurrently.
package presets
