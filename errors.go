// FILE: lixenwraith/presets/errors.go
package presets

import (
	"errors"
	"fmt"
)

var (
	// ErrAddonNotResolved is returned when an addon specifier maps to no file or package
	ErrAddonNotResolved = errors.New("addon not resolved")
	// ErrInvalidSpecifier is returned for specifier values outside the accepted shapes
	ErrInvalidSpecifier = errors.New("invalid preset specifier")
	// ErrInvalidPreset is returned when loaded contents are neither callable, a sequence, nor a keyed structure
	ErrInvalidPreset = errors.New("not a valid preset")
	// ErrModuleNotFound is returned by module loaders that do not know a specifier
	ErrModuleNotFound = errors.New("module not found")
	// ErrUnsupportedExtension is returned when a function contribution has an unrecognized signature
	ErrUnsupportedExtension = errors.New("unsupported extension function signature")
	// ErrUnsupportedFormat is returned when a preset file has no decodable format
	ErrUnsupportedFormat = errors.New("unsupported preset file format")
	// ErrConfigNotFound indicates no main config file was discovered. Not fatal.
	ErrConfigNotFound = errors.New("main config file not found")
	// ErrFileDeleted is reported by a Watcher when a watched preset file disappears
	ErrFileDeleted = errors.New("watched preset file deleted")
	// ErrPermissionsChanged is reported by a Watcher when group or world permission bits of a watched file change
	ErrPermissionsChanged = errors.New("watched preset file permissions changed")
	// ErrReloadTimeout is reported by a Watcher when a rebuild exceeds the reload timeout
	ErrReloadTimeout = errors.New("preset reload timed out")
)

// CriticalPresetError is returned instead of a contained failure when the host
// marks the load pass as critical.
type CriticalPresetError struct {
	Specifier string
	Depth     int
	Err       error
}

func (e *CriticalPresetError) Error() string {
	return fmt.Sprintf("failed to load critical preset %q at depth %d: %v", e.Specifier, e.Depth, e.Err)
}

func (e *CriticalPresetError) Unwrap() error {
	return e.Err
}
