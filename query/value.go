package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/hubenschmidt/go-recall/vector"
)

// normalizeValue maps a driver value onto the closed transport set. Values
// the set cannot carry directly (timestamps, numerics, vectors) are
// converted; unknown types fall back to their string form rather than
// leaking driver handles.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, int64, float64:
		return x
	case string:
		return normalizeText(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil {
			return fmt.Sprint(x)
		}
		return f.Float64
	case pgvector.Vector:
		return floatSlice(x.Slice())
	case []byte:
		return normalizeText(string(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeValue(val)
		}
		return out
	}

	// Array-typed columns arrive as slices of varying element types
	// depending on the driver; flatten them all into []any.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	}

	return fmt.Sprint(v)
}

// normalizeText recognizes the textual forms the backends use for composite
// values: "[...]" vector literals (also the sqlite JSON embedding encoding)
// and "{...}" postgres array literals. Anything else passes through as text.
func normalizeText(s string) any {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		if floats, err := vector.Parse(trimmed); err == nil {
			return floatAny(floats)
		}
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && !strings.Contains(trimmed, ":") {
		return parsePgArray(trimmed)
	}
	return s
}

func floatSlice(v []float32) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func floatAny(v []float64) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}

// parsePgArray splits a one-dimensional postgres array literal into its
// text elements. Quoted elements may contain commas.
func parsePgArray(s string) []any {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if inner == "" {
		return []any{}
	}

	var out []any
	var cur strings.Builder
	inQuotes := false
	escaped := false

	flush := func() {
		elem := cur.String()
		cur.Reset()
		if elem == "NULL" {
			out = append(out, nil)
			return
		}
		out = append(out, elem)
	}

	for _, r := range inner {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
