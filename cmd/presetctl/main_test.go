// FILE: lixenwraith/presets/cmd/presetctl/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.json":                          `{"babel": {"compact": true}, "addons": ["addon-ui"]}`,
		"extra.yaml":                         "babel:\n  minified: true\n",
		"node_modules/addon-ui/package.json": `{"name": "addon-ui"}`,
		"node_modules/addon-ui/manager.js":   ``,
		"node_modules/addon-ui/preview.js":   ``,
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCmd(t *testing.T) {
	dir := setupConfigDir(t)

	output, err := runCmd(t, "list", "--config-dir", dir, "--preset", "./extra.yaml")
	require.NoError(t, err)
	assert.Contains(t, output, "0\taddon-ui\t[managerEntries, previewAnnotations]")
	assert.Contains(t, output, filepath.Join(dir, "main.json")+"\t[babel]")
	assert.Contains(t, output, "2\t./extra.yaml\t[babel]")

	output, err = runCmd(t, "list", "--config-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "no presets loaded")
}

func TestEntriesCmd(t *testing.T) {
	dir := setupConfigDir(t)

	output, err := runCmd(t, "entries", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, output, filepath.Join(dir, "node_modules", "addon-ui", "manager.js"))
	assert.Contains(t, output, `"bare": "addon-ui/preview"`)
}

func TestApplyCmd(t *testing.T) {
	dir := setupConfigDir(t)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"json", []string{"apply", "babel", `{"seeded": 1}`, "--config-dir", dir, "--preset", "./extra.yaml"}, `"minified": true`},
		{"yaml", []string{"apply", "babel", "--config-dir", dir, "--format", "yaml"}, "compact: true"},
		{"toml", []string{"apply", "babel", "--config-dir", dir, "-f", "toml"}, "compact = true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runCmd(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, output, tt.expected)
		})
	}

	t.Run("InvalidSeed", func(t *testing.T) {
		_, err := runCmd(t, "apply", "babel", "{not json", "--config-dir", dir)
		assert.Error(t, err)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := runCmd(t, "apply")
		assert.Error(t, err)
	})

	t.Run("CriticalFailure", func(t *testing.T) {
		_, err := runCmd(t, "apply", "babel", "--config-dir", dir, "--preset", "./missing.json", "--critical")
		assert.Error(t, err)
	})
}
