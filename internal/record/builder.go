package record

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/cfonb120/internal/fixedwidth"
)

var (
	// ErrWidthViolation means a field or a record does not have its exact width.
	// It signals a bug in the layout table or in the formatting upstream.
	ErrWidthViolation = errors.New("record width violation")
	// ErrUnknownKind is returned for record kinds or codes without a layout.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrUnknownField is returned when a value names a field the layout does not have.
	ErrUnknownField = errors.New("unknown record field")
)

// Record is one record to emit: its kind and raw field values by name.
type Record struct {
	Kind   Kind
	Fields map[string]string
}

// Build assembles a record from already-formatted field values.
//
// Fields missing from the map are written as empty values justified per their
// descriptor. A present value whose width differs from its descriptor fails with
// ErrWidthViolation rather than being re-truncated.
func Build(kind Kind, fields map[string]string) (string, error) {
	layout, ok := layouts[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if unknown := unknownFields(layout, fields); len(unknown) > 0 {
		return "", fmt.Errorf("%w: %s record has no field %s", ErrUnknownField, kind, strings.Join(unknown, ", "))
	}

	buf := []rune(strings.Repeat(" ", Width))
	for _, f := range layout.Fields {
		v, ok := fields[f.Name]
		if !ok {
			v = fixedwidth.Format("", f.Width(), f.Align, f.Fill)
		}
		r := []rune(v)
		if len(r) != f.Width() {
			return "", fmt.Errorf("%w: %s field %s is %d characters, want %d", ErrWidthViolation, kind, f.Name, len(r), f.Width())
		}
		copy(buf[f.Start:f.End], r)
	}

	line := string(buf)
	if n := fixedwidth.Width(line); n != Width {
		return "", fmt.Errorf("%w: %s record is %d characters", ErrWidthViolation, kind, n)
	}
	return line, nil
}

// Render justifies raw values with the layout's Field Formatter rules and builds the
// record.
func Render(rec Record) (string, error) {
	layout, ok := layouts[rec.Kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, rec.Kind)
	}
	return Build(rec.Kind, layout.Format(rec.Fields))
}

// RenderAll renders records in order.
func RenderAll(recs []Record) ([]string, error) {
	lines := make([]string, 0, len(recs))
	for i, rec := range recs {
		line, err := Render(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Parse splits a record into its kind and raw (untrimmed) field values.
func Parse(line string) (Kind, map[string]string, error) {
	r := []rune(line)
	if len(r) != Width {
		return 0, nil, fmt.Errorf("%w: record is %d characters", ErrWidthViolation, len(r))
	}

	code := string(r[0:2])
	kind, ok := KindFromCode(code)
	if !ok {
		return 0, nil, fmt.Errorf("%w: record code %q", ErrUnknownKind, code)
	}

	layout := layouts[kind]
	fields := make(map[string]string, len(layout.Fields))
	for _, f := range layout.Fields {
		fields[f.Name] = string(r[f.Start:f.End])
	}
	return kind, fields, nil
}

func unknownFields(l Layout, fields map[string]string) []string {
	var unknown []string
	for name := range fields {
		if _, ok := l.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
