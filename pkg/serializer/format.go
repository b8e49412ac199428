// Package serializer writes an exported report document to stdout or a
// file in JSON, YAML, or a hierarchical table form. It treats the document
// as opaque data handed over by the assembler; it performs no collection
// of its own.
package serializer

import (
	"path/filepath"
	"strings"
)

// Format identifies an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether the format is not one of the supported values.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	}
	return true
}

// FormatFromPath derives the output format from a file extension,
// defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt":
		return FormatTable
	default:
		return FormatJSON
	}
}
