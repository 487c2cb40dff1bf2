// FILE: lixenwraith/presets/exports.go
package presets

import (
	"strings"
)

// ResolveExport looks up subpath in a package export map and returns the first
// concrete target matching conditions. Conditions are tried in the given order,
// so the list defines priority. The returned target is relative to the package
// directory (e.g. "./dist/manager.js").
func ResolveExport(exports any, subpath string, conditions []string) (string, bool) {
	if exports == nil {
		return "", false
	}
	subpath = normalizeSubpath(subpath)

	switch e := exports.(type) {
	case string, []any:
		if subpath != "." {
			return "", false
		}
		return resolveExportTarget(e, conditions, "")
	case map[string]any:
		if !isSubpathMap(e) {
			if subpath != "." {
				return "", false
			}
			return resolveExportTarget(e, conditions, "")
		}

		if target, ok := e[subpath]; ok {
			return resolveExportTarget(target, conditions, "")
		}
		return resolveExportPattern(e, subpath, conditions)
	}
	return "", false
}

// resolveExportPattern handles "./x/*" and legacy "./x/" keys, picking the longest matching prefix
func resolveExportPattern(exports map[string]any, subpath string, conditions []string) (string, bool) {
	bestKey, bestSub, bestLen := "", "", -1
	for key := range exports {
		if star := strings.IndexByte(key, '*'); star >= 0 {
			prefix, suffix := key[:star], key[star+1:]
			if len(subpath) < len(prefix)+len(suffix) ||
				!strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
				continue
			}
			if len(prefix) > bestLen {
				bestKey, bestLen = key, len(prefix)
				bestSub = subpath[len(prefix) : len(subpath)-len(suffix)]
			}
			continue
		}
		if strings.HasSuffix(key, "/") && strings.HasPrefix(subpath, key) && len(key) > bestLen {
			bestKey, bestLen = key, len(key)
			bestSub = subpath[len(key):]
		}
	}
	if bestKey == "" {
		return "", false
	}

	if !strings.Contains(bestKey, "*") {
		target, ok := resolveExportTarget(exports[bestKey], conditions, "")
		if !ok {
			return "", false
		}
		return target + bestSub, true
	}
	return resolveExportTarget(exports[bestKey], conditions, bestSub)
}

// resolveExportTarget resolves a single export target: a string, a fallback array, or a condition map
func resolveExportTarget(target any, conditions []string, patternMatch string) (string, bool) {
	switch t := target.(type) {
	case string:
		if !strings.HasPrefix(t, "./") {
			return "", false
		}
		if patternMatch != "" {
			t = strings.ReplaceAll(t, "*", patternMatch)
		}
		return t, true
	case []any:
		for _, item := range t {
			if resolved, ok := resolveExportTarget(item, conditions, patternMatch); ok {
				return resolved, true
			}
		}
	case map[string]any:
		for _, condition := range conditions {
			next, ok := t[condition]
			if !ok {
				continue
			}
			if resolved, ok := resolveExportTarget(next, conditions, patternMatch); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// isSubpathMap reports whether the map is keyed by subpaths rather than conditions
func isSubpathMap(exports map[string]any) bool {
	for key := range exports {
		return strings.HasPrefix(key, ".")
	}
	return false
}

func normalizeSubpath(subpath string) string {
	switch {
	case subpath == "" || subpath == ".":
		return "."
	case strings.HasPrefix(subpath, "./"):
		return subpath
	case strings.HasPrefix(subpath, "/"):
		return "." + subpath
	default:
		return "./" + subpath
	}
}
