// FILE: lixenwraith/presets/resolve.go
package presets

import (
	"os"
	"path/filepath"
	"strings"
)

// Strategy selects a resolution profile
type Strategy string

const (
	// StrategyBrowser resolves the way a browser bundler does
	StrategyBrowser Strategy = "browser"
	// StrategyNode resolves the way the server-side runtime does
	StrategyNode Strategy = "node"
)

// dataExtensions are preset file formats the file module loader can decode.
// They trail the runtime extensions so script files always win.
var dataExtensions = []string{".json", ".jsonc", ".yaml", ".yml", ".toml"}

// Profile holds the priority lists for one strategy
type Profile struct {
	Extensions     []string
	Fields         []string
	Conditions     []string
	FollowSymlinks bool
}

// Profiles maps each strategy to its resolution profile
var Profiles = map[Strategy]Profile{
	StrategyBrowser: {
		Extensions:     []string{".mjs", ".js", ".jsx", ".ts", ".tsx", ".json"},
		Fields:         []string{"browser", "module", "main"},
		Conditions:     []string{"browser", "import", "default"},
		FollowSymlinks: true,
	},
	StrategyNode: {
		Extensions: append([]string{".cjs", ".js"}, dataExtensions...),
		Fields:     []string{"node", "require", "main"},
		Conditions: []string{"node", "require", "default"},
	},
}

// Request is a single module resolution query
type Request struct {
	Conditions     []string
	Fields         []string
	Extensions     []string
	BaseDir        string
	Specifier      string
	FollowSymlinks bool
}

// Resolver maps a specifier to a file path. A miss is reported as ok=false, never as an error.
type Resolver interface {
	Resolve(req Request) (path string, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(req Request) (string, bool)

func (f ResolverFunc) Resolve(req Request) (string, bool) {
	return f(req)
}

// Adapter applies resolution strategies on top of a Resolver
type Adapter struct {
	resolver Resolver
}

// NewAdapter creates an adapter over r. A nil r uses FileResolver.
func NewAdapter(r Resolver) *Adapter {
	if r == nil {
		r = FileResolver{}
	}
	return &Adapter{resolver: r}
}

// ResolveFor resolves specifier from baseDir using the given strategy
func (a *Adapter) ResolveFor(strategy Strategy, specifier, baseDir string) (string, bool) {
	profile, ok := Profiles[strategy]
	if !ok || specifier == "" {
		return "", false
	}
	return a.resolver.Resolve(Request{
		Conditions:     profile.Conditions,
		Fields:         profile.Fields,
		Extensions:     profile.Extensions,
		BaseDir:        baseDir,
		Specifier:      specifier,
		FollowSymlinks: profile.FollowSymlinks,
	})
}

// ResolveGeneric is the absolute-path-aware fallback: absolute specifiers are
// checked as-is, anything else goes through the node strategy.
func (a *Adapter) ResolveGeneric(specifier, baseDir string) (string, bool) {
	if filepath.IsAbs(specifier) {
		if isFile(specifier) {
			return specifier, true
		}
		return a.ResolveFor(StrategyNode, specifier, filepath.Dir(specifier))
	}
	return a.ResolveFor(StrategyNode, specifier, baseDir)
}

// ResolveExportFor resolves "<pkg>/<subpath>" through the package export map with the strategy's conditions
func (a *Adapter) ResolveExportFor(strategy Strategy, m *Manifest, subpath string) (string, bool) {
	if m == nil {
		return "", false
	}
	target, ok := ResolveExport(m.Exports, subpath, Profiles[strategy].Conditions)
	if !ok {
		return "", false
	}
	path := filepath.Join(m.Dir, filepath.FromSlash(target))
	if !isFile(path) {
		return "", false
	}
	return path, true
}

// FileResolver resolves specifiers against the local file system using
// node_modules lookup, package entry fields, and export maps.
type FileResolver struct{}

// Resolve implements Resolver
func (FileResolver) Resolve(req Request) (string, bool) {
	var (
		path string
		ok   bool
	)
	if isPathSpecifier(req.Specifier) {
		target := req.Specifier
		if !filepath.IsAbs(target) {
			target = filepath.Join(req.BaseDir, target)
		}
		path, ok = resolveFileOrDir(target, req)
	} else {
		path, ok = resolvePackage(req)
	}
	if !ok {
		return "", false
	}

	if req.FollowSymlinks {
		if real, err := filepath.EvalSymlinks(path); err == nil {
			path = real
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, true
}

// resolvePackage walks node_modules directories upward from the base directory
func resolvePackage(req Request) (string, bool) {
	name, subpath := splitPackageSpecifier(req.Specifier)
	if name == "" {
		return "", false
	}

	dir := req.BaseDir
	for {
		if filepath.Base(dir) != "node_modules" {
			pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
			if isDir(pkgDir) {
				return resolveInPackage(pkgDir, subpath, req)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// resolveInPackage resolves a subpath inside a located package directory
func resolveInPackage(pkgDir, subpath string, req Request) (string, bool) {
	m, err := ReadManifest(pkgDir)
	if err == nil && m.Exports != nil {
		// The manifest itself stays reachable even when exports would hide it
		if subpath == ManifestFile {
			return filepath.Join(pkgDir, ManifestFile), true
		}
		target, ok := ResolveExport(m.Exports, subpath, req.Conditions)
		if !ok {
			return "", false
		}
		path := filepath.Join(pkgDir, filepath.FromSlash(target))
		return path, isFile(path)
	}

	if subpath != "" {
		return resolveFileOrDir(filepath.Join(pkgDir, filepath.FromSlash(subpath)), req)
	}
	return resolveDir(pkgDir, req)
}

// resolveFileOrDir tries the exact path, then each extension, then the path as a directory
func resolveFileOrDir(target string, req Request) (string, bool) {
	if isFile(target) {
		return target, true
	}
	for _, ext := range req.Extensions {
		if isFile(target + ext) {
			return target + ext, true
		}
	}
	if isDir(target) {
		return resolveDir(target, req)
	}
	return "", false
}

// resolveDir resolves a directory through its manifest entry fields, then its index file
func resolveDir(dir string, req Request) (string, bool) {
	if m, err := ReadManifest(dir); err == nil {
		for _, field := range req.Fields {
			entry, ok := m.Field(field)
			if !ok {
				continue
			}
			target := filepath.Join(dir, filepath.FromSlash(entry))
			if isFile(target) {
				return target, true
			}
			for _, ext := range req.Extensions {
				if isFile(target + ext) {
					return target + ext, true
				}
			}
			if isDir(target) {
				if path, ok := resolveIndex(target, req.Extensions); ok {
					return path, true
				}
			}
		}
	}
	return resolveIndex(dir, req.Extensions)
}

func resolveIndex(dir string, extensions []string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(dir, "index"+ext)
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

// splitPackageSpecifier splits "@scope/name/sub/path" into "@scope/name" and "sub/path"
func splitPackageSpecifier(specifier string) (name, subpath string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", ""
		}
		n = 2
	}
	if len(parts) < n || parts[0] == "" {
		return "", ""
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}

// isPathSpecifier reports whether specifier is a relative or absolute path rather than a package name
func isPathSpecifier(specifier string) bool {
	return filepath.IsAbs(specifier) ||
		specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
