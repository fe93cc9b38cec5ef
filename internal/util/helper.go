package util

import (
	"fmt"
	"strconv"
	"strings"
)

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// SplitFloats parses a comma-separated list of floats, the reply shape of
// SCPI list queries such as "LIST:FREQ?". Surrounding whitespace around
// each element is ignored.
func SplitFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty float list")
	}

	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", part, err)
		}
		values = append(values, v)
	}

	return values, nil
}

// ParseBoolReply parses instrument replies of the form "0"/"1" (possibly
// float-formatted, e.g. "1.0") into a bool.
func ParseBoolReply(s string) (bool, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false, fmt.Errorf("parse bool reply %q: %w", s, err)
	}

	return int(v) != 0, nil
}

// ParseFloatReply parses a single-value numeric instrument reply.
func ParseFloatReply(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float reply %q: %w", s, err)
	}

	return v, nil
}
