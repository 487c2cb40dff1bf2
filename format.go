// FILE: lixenwraith/presets/format.go
package presets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Supported preset file formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// DetectFormat determines format from file extension
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml", ".tml":
		return FormatTOML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(jsonc.ToJSON(data), &jsonTest); err == nil {
		return FormatJSON
	}

	// TOML before YAML: most TOML documents are also valid YAML scalars
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		if _, ok := yamlTest.(string); !ok {
			return FormatYAML
		}
	}
	return ""
}

// ReadFile reads and decodes a preset file. The format comes from the
// extension, falling back to content detection.
func ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file '%s': %w", path, err)
	}

	format := DetectFormat(path)
	if format == "" {
		if format = detectFormatFromContent(data); format == "" {
			return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, path)
		}
	}

	value, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preset file '%s': %w", path, err)
	}
	return value, nil
}

// Decode parses data in the given format
func Decode(data []byte, format string) (any, error) {
	switch format {
	case FormatJSON:
		var value any
		if err := json.Unmarshal(jsonc.ToJSON(data), &value); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return value, nil
	case FormatYAML:
		var value any
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return value, nil
	case FormatTOML:
		value := make(map[string]any)
		if err := toml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode writes v to w in the given format
func Encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	case FormatTOML:
		// TOML documents must be tables
		if kind := reflect.Indirect(reflect.ValueOf(v)).Kind(); kind != reflect.Map && kind != reflect.Struct {
			v = map[string]any{"value": v}
		}
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile encodes v and writes it to path atomically
func WriteFile(path string, v any, format string) error {
	if format == "" {
		format = DetectFormat(path)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, v, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
