// Package rows reads statement exports into raw text rows. Each supported file format
// is a Source registered under a name.
package rows

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no registered source handles a file.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Source reads one export format into rows of text cells.
type Source interface {
	Read(data []byte) ([][]string, error)
	Format() string
	// Extensions lists the lower-case file extensions the source handles, dot included.
	Extensions() []string
	// Match reports whether data looks like this format regardless of its file name.
	Match(data []byte) bool
}

// Registry holds named sources in registration order.
type Registry struct {
	sources []Source
	byName  map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Source)}
}

// Register adds a source. Panics on duplicate format.
func (r *Registry) Register(s Source) {
	key := strings.ToLower(s.Format())
	if _, ok := r.byName[key]; ok {
		panic("duplicate row source format: " + key)
	}
	r.byName[key] = s
	r.sources = append(r.sources, s)
}

// Get returns the source for format, or nil.
func (r *Registry) Get(format string) Source {
	return r.byName[strings.ToLower(format)]
}

// Formats returns registered format names in registration order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Format())
	}
	return names
}

// Supports reports whether a file name has an extension some source handles.
func (r *Registry) Supports(filename string) bool {
	return r.byExtension(filename) != nil
}

// Detect picks the source for a file: content sniffing first, then the extension.
func (r *Registry) Detect(filename string, data []byte) (Source, error) {
	for _, s := range r.sources {
		if s.Match(data) {
			return s, nil
		}
	}
	if s := r.byExtension(filename); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, filename, strings.Join(r.Formats(), ", "))
}

// ReadFile detects the source for filename and reads data with it.
func (r *Registry) ReadFile(filename string, data []byte) ([][]string, Source, error) {
	s, err := r.Detect(filename, data)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.Read(data)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s as %s: %w", filepath.Base(filename), s.Format(), err)
	}
	return rows, s, nil
}

func (r *Registry) byExtension(filename string) Source {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil
	}
	for _, s := range r.sources {
		for _, e := range s.Extensions() {
			if e == ext {
				return s
			}
		}
	}
	return nil
}

// DefaultRegistry returns a registry with the xlsx and csv sources. delim is the CSV
// field delimiter.
func DefaultRegistry(delim rune) *Registry {
	r := NewRegistry()
	r.Register(&XLSXSource{})
	r.Register(&CSVSource{Delimiter: delim})
	return r
}

var zipMagic = []byte("PK\x03\x04")

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}
