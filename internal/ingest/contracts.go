package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned when the presented credential is rejected.
var ErrUnauthorized = errors.New("ingest: invalid api key")

// FieldError describes one field that fell outside its declared domain.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every offending field of a rejected reading.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Reason))
	}
	return "ingest: invalid reading: " + strings.Join(parts, "; ")
}

// FieldNames returns the offending field names in validation order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}
