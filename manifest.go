// FILE: lixenwraith/presets/manifest.go
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// ManifestFile is the package manifest file name looked up in package directories
const ManifestFile = "package.json"

// Manifest is the subset of a package manifest the resolver needs.
// Fields keeps the raw decoded document so entry fields can be looked up by name.
type Manifest struct {
	Name    string
	Dir     string
	Exports any
	Fields  map[string]any
}

// Field returns a string entry field such as "main" or "module".
// Non-string values (e.g. a "browser" replacement map) are ignored.
func (m *Manifest) Field(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m.Fields[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ReadManifest reads and parses the manifest in dir.
// Comments and trailing commas are tolerated.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(jsonc.ToJSON(data), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse manifest '%s': %w", path, err)
	}

	m := &Manifest{
		Dir:     dir,
		Exports: fields["exports"],
		Fields:  fields,
	}
	m.Name, _ = fields["name"].(string)
	return m, nil
}

// FindManifest walks up from path (a file or directory) and returns the nearest
// enclosing manifest. Unreadable or malformed manifests are skipped.
func FindManifest(path string) (*Manifest, bool) {
	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}

	for {
		if m, err := ReadManifest(dir); err == nil {
			return m, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}
