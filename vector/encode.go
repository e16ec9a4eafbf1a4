package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// Format converts a float64 slice to pgvector text format: "[0.1,0.2,0.3]".
// JSON float arrays use the same shape, so the sqlite backend shares it.
func Format(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}

	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Parse converts pgvector text format back to a float64 slice.
func Parse(s string) ([]float64, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("not a vector literal: %q", s)
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return []float64{}, nil
	}

	parts := strings.Split(inner, ",")
	result := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %d: %w", i, err)
		}
		result[i] = v
	}
	return result, nil
}
