package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/depscope/depscope/pkg/report"
)

// Writer serializes data to a single destination in one format.
type Writer struct {
	format Format
	w      io.Writer
	closer io.Closer
}

// NewWriter creates a writer targeting the given stream.
func NewWriter(format Format, w io.Writer) *Writer {
	return &Writer{format: format, w: w}
}

// NewStdoutWriter creates a writer targeting stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriter creates a writer targeting the given path, truncating any
// existing file.
func NewFileWriter(format Format, path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	return &Writer{format: format, w: f, closer: f}, nil
}

// NewFileWriterOrStdout creates a file writer when path is non-empty and a
// stdout writer otherwise.
func NewFileWriterOrStdout(format Format, path string) (*Writer, error) {
	if path == "" {
		return NewStdoutWriter(format), nil
	}
	return NewFileWriter(format, path)
}

// Serialize encodes data in the writer's format. For FormatTable, data
// must be a *report.Export; the structured formats accept anything
// marshalable.
func (w *Writer) Serialize(ctx context.Context, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush yaml: %w", err)
		}
	case FormatTable:
		export, ok := data.(*report.Export)
		if !ok {
			return fmt.Errorf("table format requires a report export, got %T", data)
		}
		return renderTable(w.w, export)
	default:
		return fmt.Errorf("unknown output format: %q", w.format)
	}

	return nil
}

// Close releases the underlying destination when it owns one.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
