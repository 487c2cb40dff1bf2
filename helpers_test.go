// FILE: lixenwraith/presets/helpers_test.go
package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// writeFiles lays out files (relative path -> content) under root
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// newTestLogger returns a logger capturing entries for assertions
func newTestLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// messagesAt returns the messages logged at level
func messagesAt(hook *test.Hook, level logrus.Level) []string {
	var messages []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == level {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}

// presetNames returns the names of a loaded list, in order
func presetNames(list []LoadedPreset) []string {
	names := make([]string, len(list))
	for i, loaded := range list {
		names[i] = loaded.Name
	}
	return names
}
