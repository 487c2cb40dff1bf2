// FILE: lixenwraith/presets/discovery_test.go
package presets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMain(t *testing.T) {
	t.Run("ExtensionOrder", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"main.yaml": "a: 1\n",
			"main.toml": "a = 1\n",
		})
		path, err := DiscoverMain(dir, DefaultDiscoveryOptions())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "main.yaml"), path)
	})

	t.Run("CustomPathsFirst", func(t *testing.T) {
		dir, custom := t.TempDir(), t.TempDir()
		writeFiles(t, dir, map[string]string{"main.json": `{}`})
		writeFiles(t, custom, map[string]string{"main.toml": ""})

		opts := DefaultDiscoveryOptions()
		opts.Paths = []string{custom}
		path, err := DiscoverMain(dir, opts)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(custom, "main.toml"), path)
	})

	t.Run("EnvOverride", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"main.json": `{}`, "other/storybook.yaml": ""})

		opts := DefaultDiscoveryOptions()
		opts.EnvVar = "TEST_PRESETS_MAIN"
		t.Setenv("TEST_PRESETS_MAIN", filepath.Join(dir, "other", "storybook.yaml"))
		path, err := DiscoverMain(dir, opts)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "other", "storybook.yaml"), path)

		t.Setenv("TEST_PRESETS_MAIN", filepath.Join(dir, "missing.yaml"))
		_, err = DiscoverMain(dir, opts)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("CustomName", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"storybook.jsonc": `{}`})

		opts := DefaultDiscoveryOptions()
		opts.Name = "storybook"
		path, err := DiscoverMain(dir, opts)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "storybook.jsonc"), path)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := DiscoverMain(t.TempDir(), DefaultDiscoveryOptions())
		assert.ErrorIs(t, err, ErrConfigNotFound)

		_, err = DiscoverMain("", DefaultDiscoveryOptions())
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("Disabled", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"main.json": `{}`})
		_, err := DiscoverMain(dir, DiscoveryOptions{Disabled: true})
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})
}

func TestMainCandidates(t *testing.T) {
	dir, custom := t.TempDir(), t.TempDir()

	opts := DiscoveryOptions{Name: "main", Extensions: []string{".json", ".yaml"}, Paths: []string{custom}}
	assert.Equal(t, []string{
		filepath.Join(custom, "main.json"),
		filepath.Join(custom, "main.yaml"),
		filepath.Join(dir, "main.json"),
		filepath.Join(dir, "main.yaml"),
	}, MainCandidates(dir, opts))

	opts.EnvVar = "TEST_PRESETS_MAIN"
	t.Setenv("TEST_PRESETS_MAIN", filepath.Join(dir, "explicit.toml"))
	assert.Equal(t, []string{filepath.Join(dir, "explicit.toml")}, MainCandidates(dir, opts))

	assert.Empty(t, MainCandidates(dir, DiscoveryOptions{Disabled: true}))
}
