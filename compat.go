// FILE: lixenwraith/presets/compat.go
package presets

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// legacyTypeScriptPreset matches the retired TypeScript preset; TypeScript support is built in.
var legacyTypeScriptPreset = regexp.MustCompile(`@storybook[\\/]preset-typescript`)

// filterLegacyPresets drops the retired TypeScript preset and warns once when it was present.
// No other specifier is ever filtered.
func filterLegacyPresets(specs []Specifier, logger logrus.FieldLogger) []Specifier {
	filtered := make([]Specifier, 0, len(specs))
	for _, spec := range specs {
		if spec.Kind == KindModule && legacyTypeScriptPreset.MatchString(spec.Name) {
			continue
		}
		filtered = append(filtered, spec)
	}
	if len(filtered) < len(specs) {
		logger.Warn("TypeScript is now supported natively. You can safely remove `@storybook/preset-typescript`.")
	}
	return filtered
}
