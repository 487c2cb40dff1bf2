// FILE: lixenwraith/presets/addon.go
package presets

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// AddonKind discriminates ResolvedAddon
type AddonKind string

const (
	// AddonVirtual is an addon made of direct UI entry files
	AddonVirtual AddonKind = "virtual"
	// AddonPresets is an addon that is loaded as an ordinary preset module
	AddonPresets AddonKind = "presets"
)

var (
	managerEntryPattern = regexp.MustCompile(`[/\\](manager|register|register-panel)(\.(mjs|js|jsx|ts|tsx))?$`)
	presetEntryPattern  = regexp.MustCompile(`[/\\]preset(\.(mjs|cjs|js|jsx|ts|tsx|json|jsonc|yaml|yml|toml))?$`)
)

// PreviewAnnotation is a preview bundle entry. Bare is the package-relative
// specifier; Absolute is the physical path when it could be resolved, for
// bundlers that cannot follow bare specifiers out of the project.
type PreviewAnnotation struct {
	Bare     string `json:"bare" yaml:"bare" toml:"bare" preset:"bare"`
	Absolute string `json:"absolute,omitempty" yaml:"absolute,omitempty" toml:"absolute,omitempty" preset:"absolute"`
}

// ResolvedAddon is the outcome of addon name resolution
type ResolvedAddon struct {
	Kind               AddonKind
	Name               string
	ManagerEntries     []string
	PreviewAnnotations []PreviewAnnotation
	Presets            []Specifier
	// Options carries the caller's addon options for AddonPresets results
	Options map[string]any
}

// contents returns the preset shape of a virtual addon, omitting empty lists
func (r *ResolvedAddon) contents() map[string]any {
	contents := make(map[string]any)
	if len(r.ManagerEntries) > 0 {
		entries := make([]any, len(r.ManagerEntries))
		for i, e := range r.ManagerEntries {
			entries[i] = e
		}
		contents[ExtManagerEntries] = entries
	}
	if len(r.PreviewAnnotations) > 0 {
		annotations := make([]any, len(r.PreviewAnnotations))
		for i, a := range r.PreviewAnnotations {
			annotations[i] = a
		}
		contents[ExtPreviewAnnotations] = annotations
	}
	if len(r.Presets) > 0 {
		nested := make([]any, len(r.Presets))
		for i, s := range r.Presets {
			nested[i] = s
		}
		contents[keyPresets] = nested
	}
	return contents
}

// AddonResolver decides whether an addon specifier is a virtual addon or a preset module
type AddonResolver struct {
	adapter *Adapter
}

// NewAddonResolver creates a resolver over the given adapter. A nil adapter uses the file system.
func NewAddonResolver(adapter *Adapter) *AddonResolver {
	if adapter == nil {
		adapter = NewAdapter(nil)
	}
	return &AddonResolver{adapter: adapter}
}

// Resolve maps an addon specifier to a ResolvedAddon.
// Returns ErrAddonNotResolved when neither a file nor a package can be found.
func (r *AddonResolver) Resolve(baseDir, specifier string, options map[string]any) (*ResolvedAddon, error) {
	if strings.TrimSpace(specifier) == "" {
		return nil, fmt.Errorf("%w: empty addon name", ErrInvalidSpecifier)
	}

	// 1. Direct resolution of the specifier itself
	browserPath, browserOK := r.adapter.ResolveFor(StrategyBrowser, specifier, baseDir)
	nodePath, nodeOK := r.adapter.ResolveFor(StrategyNode, specifier, baseDir)
	genericPath, genericOK := r.adapter.ResolveGeneric(specifier, baseDir)

	if browserOK && managerEntryPattern.MatchString(browserPath) {
		return &ResolvedAddon{
			Kind:           AddonVirtual,
			Name:           specifier,
			ManagerEntries: []string{browserPath},
		}, nil
	}

	// 2. Direct preset file
	if nodeOK && presetEntryPattern.MatchString(nodePath) {
		return &ResolvedAddon{Kind: AddonPresets, Name: nodePath, Options: options}, nil
	}

	// 3. Enclosing package
	manifest, ok := r.findPackage(specifier, baseDir, firstOf(browserPath, nodePath, genericPath))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAddonNotResolved, specifier)
	}

	// 4. Canonical sub-entries
	base := specifier
	if isPathSpecifier(specifier) {
		base = manifest.Dir
	}
	managerFile, _ := r.probe(StrategyBrowser, manifest, base, baseDir, "manager")
	registerFile, ok := r.probe(StrategyBrowser, manifest, base, baseDir, "register")
	if !ok {
		registerFile, _ = r.probe(StrategyBrowser, manifest, base, baseDir, "register-panel")
	}
	previewFile, previewOK := r.probe(StrategyBrowser, manifest, base, baseDir, "preview")
	presetFile, _ := r.probe(StrategyNode, manifest, base, baseDir, "preset")

	// 5. Compose
	if managerFile == "" && !previewOK && presetFile != "" {
		return &ResolvedAddon{Kind: AddonPresets, Name: presetFile, Options: options}, nil
	}

	if managerFile != "" || registerFile != "" || previewOK || presetFile != "" {
		addon := &ResolvedAddon{Kind: AddonVirtual, Name: specifier}

		switch {
		case managerFile != "":
			addon.ManagerEntries = []string{managerFile}
		case registerFile != "" && presetFile == "":
			// register entries are superseded by a preset
			addon.ManagerEntries = []string{registerFile}
		}
		if previewOK {
			addon.PreviewAnnotations = []PreviewAnnotation{{
				Bare:     joinSpecifier(base, "preview"),
				Absolute: previewFile,
			}}
		}
		if presetFile != "" {
			addon.Presets = []Specifier{WithOptions(presetFile, options)}
		}
		return addon, nil
	}

	if genericOK {
		return &ResolvedAddon{Kind: AddonPresets, Name: genericPath, Options: options}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAddonNotResolved, specifier)
}

// findPackage locates the manifest of the package the specifier belongs to.
// Packages exposing only sub-entries have no resolvable main file, so their
// manifest is looked up through "<specifier>/package.json" as a last resort.
func (r *AddonResolver) findPackage(specifier, baseDir, resolved string) (*Manifest, bool) {
	if resolved != "" {
		return FindManifest(resolved)
	}
	if isPathSpecifier(specifier) {
		dir := specifier
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		if m, err := ReadManifest(dir); err == nil {
			return m, true
		}
		return nil, false
	}
	path, ok := r.adapter.ResolveFor(StrategyNode, joinSpecifier(specifier, ManifestFile), baseDir)
	if !ok {
		return nil, false
	}
	return FindManifest(path)
}

// probe resolves one canonical entry, falling back to the export map
func (r *AddonResolver) probe(strategy Strategy, m *Manifest, base, baseDir, entry string) (string, bool) {
	if path, ok := r.adapter.ResolveFor(strategy, joinSpecifier(base, entry), baseDir); ok {
		return path, true
	}
	return r.adapter.ResolveExportFor(strategy, m, entry)
}

func joinSpecifier(base, entry string) string {
	if filepath.IsAbs(base) {
		return filepath.Join(base, entry)
	}
	return strings.TrimSuffix(base, "/") + "/" + entry
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
