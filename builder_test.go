// FILE: lixenwraith/presets/builder_test.go
package presets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder tests the builder pattern
func TestBuilder(t *testing.T) {
	ctx := context.Background()

	t.Run("EndToEndAddons", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"node_modules/addon-a/package.json": `{"name": "addon-a"}`,
			"node_modules/addon-a/manager.js":   ``,
			"node_modules/addon-b/package.json": `{"name": "addon-b"}`,
			"node_modules/addon-b/preset.js":    ``,
		})

		var seenOptions map[string]any
		registry := NewRegistry()
		require.NoError(t, registry.Register(filepath.Join(root, "node_modules", "addon-b", "preset.js"), map[string]any{
			"webpackFinal": ExtensionFunc(func(_ context.Context, acc any, x *ExtensionContext) (any, error) {
				seenOptions = x.Options
				out := make(map[string]any)
				for k, v := range acc.(map[string]any) {
					out[k] = v
				}
				out["touched"] = true
				return out, nil
			}),
		}))

		p, err := NewBuilder().
			WithConfigDir(root).
			WithRegistry(registry).
			WithLogger(NewNopLogger()).
			WithAddons("addon-a", map[string]any{"name": "addon-b", "options": map[string]any{"x": 1}}).
			Build(ctx)
		require.NoError(t, err)

		result, err := p.Apply(ctx, "webpackFinal", map[string]any{}, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"touched": true}, result)
		assert.Equal(t, 1, seenOptions["x"])

		entries, err := p.ManagerEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "node_modules", "addon-a", "manager.js")}, entries)
	})

	t.Run("PassOrder", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"main.json":                       `{"order": ["main"]}`,
			"node_modules/addon/package.json": `{"name": "addon"}`,
			"node_modules/addon/preset.js":    ``,
		})
		registry := NewRegistry()
		for _, name := range []string{"core", "user", "override"} {
			require.NoError(t, registry.Register(name, map[string]any{"order": []any{name}}))
		}
		require.NoError(t, registry.Register(filepath.Join(root, "node_modules", "addon", "preset.js"), map[string]any{"order": []any{"addon"}}))

		p, err := NewBuilder().
			WithConfigDir(root).
			WithRegistry(registry).
			WithLogger(NewNopLogger()).
			WithOverridePresets("override").
			WithAddons("addon").
			WithPresets("user").
			WithCorePresets("core").
			Build(ctx)
		require.NoError(t, err)

		result, err := p.Apply(ctx, "order", []any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"core", "main", "user", "addon", "override"}, result)
	})

	t.Run("HostValues", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register("fn", PresetFunc(func(host *HostOptions, _ map[string]any) (any, error) {
			return map[string]any{"mode": host.Values["mode"]}, nil
		})))

		p, err := NewBuilder().
			WithRegistry(registry).
			WithMainDiscovery(DiscoveryOptions{Disabled: true}).
			WithHostValue("mode", "production").
			WithPresets("fn").
			Build(ctx)
		require.NoError(t, err)

		result, err := p.Apply(ctx, "mode", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "production", result)
	})

	t.Run("LegacyTypeScriptPresetFiltered", func(t *testing.T) {
		logger, hook := newTestLogger()
		registry := NewRegistry()
		require.NoError(t, registry.Register("kept", map[string]any{}))

		p, err := NewBuilder().
			WithRegistry(registry).
			WithLogger(logger).
			WithMainDiscovery(DiscoveryOptions{Disabled: true}).
			WithPresets("@storybook/preset-typescript", "kept").
			Build(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, presetNames(p.List()))
		assert.Len(t, messagesAt(hook, logrus.WarnLevel), 1)
	})

	t.Run("CriticalFailure", func(t *testing.T) {
		_, err := NewBuilder().
			WithCritical(true).
			WithLogger(NewNopLogger()).
			WithMainDiscovery(DiscoveryOptions{Disabled: true}).
			WithPresets("does-not-exist").
			Build(ctx)
		var critical *CriticalPresetError
		assert.True(t, errors.As(err, &critical))
	})

	t.Run("InvalidSpecifier", func(t *testing.T) {
		_, err := NewBuilder().WithPresets(42).Build(ctx)
		assert.ErrorIs(t, err, ErrInvalidSpecifier)
	})

	t.Run("Validators", func(t *testing.T) {
		var order []int
		_, err := NewBuilder().
			WithLogger(NewNopLogger()).
			WithMainDiscovery(DiscoveryOptions{Disabled: true}).
			WithValidator(func(*Presets) error { order = append(order, 1); return nil }).
			WithValidator(nil).
			WithValidator(func(*Presets) error { order = append(order, 2); return errors.New("no framework") }).
			WithValidator(func(*Presets) error { order = append(order, 3); return nil }).
			Build(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no framework")
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder().WithPresets(42).MustBuild(ctx)
		})
	})

	t.Run("CustomModuleLoader", func(t *testing.T) {
		var requested []string
		loader := ModuleLoaderFunc(func(_ context.Context, specifier string) (any, error) {
			requested = append(requested, specifier)
			return map[string]any{"ok": true}, nil
		})
		p, err := NewBuilder().
			WithModuleLoader(loader).
			WithMainDiscovery(DiscoveryOptions{Disabled: true}).
			WithPresets("anything").
			Build(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"anything"}, requested)
		assert.Equal(t, 1, p.Len())
	})
}

func TestSourceFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.yaml":          "presets:\n  - ./presets/extra.toml\n",
		"presets/extra.toml": "extra = true\n",
	})

	b := NewBuilder().WithConfigDir(root).WithLogger(NewNopLogger())
	p, files, err := b.build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{
		filepath.Join(root, "main.yaml"),
		filepath.Join(root, "presets", "extra.toml"),
	}, files)
}
