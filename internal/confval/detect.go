package confval

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported config file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatINI  Format = "ini"
)

// ErrUnsupportedFormat is returned when neither the file extension nor the
// content shape identifies a supported format.
var ErrUnsupportedFormat = fmt.Errorf("unsupported file type; supported: yaml/json/ini-like")

// Detect determines a file's format from its extension, falling back to a
// content sniff for data that is unmistakably JSON.
func Detect(path string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".ini", ".conf", ".service", ".timer":
		return FormatINI, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON, nil
	}

	return "", fmt.Errorf("%w (path %s)", ErrUnsupportedFormat, path)
}

// Parse decodes data in the given format.
func Parse(f Format, data []byte) (Value, error) {
	switch f {
	case FormatYAML:
		return ParseYAML(data)
	case FormatJSON:
		return ParseJSON(data)
	case FormatINI:
		return ParseINI(data)
	default:
		return Value{}, fmt.Errorf("parse: unknown format %q", f)
	}
}

// Render serializes a value in the given format.
func Render(f Format, v Value) ([]byte, error) {
	switch f {
	case FormatYAML:
		return RenderYAML(v)
	case FormatJSON:
		return RenderJSON(v)
	case FormatINI:
		return RenderINI(v)
	default:
		return nil, fmt.Errorf("render: unknown format %q", f)
	}
}
