package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineDistanceOrdering(t *testing.T) {
	query := []float64{1, 0, 0}
	near := []float64{0.9, 0.1, 0}
	far := []float64{0, 1, 0}

	if CosineDistance(query, near) >= CosineDistance(query, far) {
		t.Errorf("expected near vector to have smaller distance: near=%v far=%v",
			CosineDistance(query, near), CosineDistance(query, far))
	}
	if d := CosineDistance(query, query); math.Abs(d) > 1e-12 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-12 {
		t.Errorf("normalized vector has norm %v, want 1", math.Sqrt(norm))
	}

	zero := []float64{0, 0}
	if got := Normalize(zero); got[0] != 0 || got[1] != 0 {
		t.Errorf("Normalize(zero) = %v, want zero vector", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	in := []float64{0.25, -1.5, 3.0000001, 0}
	out, err := Parse(Format(in))
	if err != nil {
		t.Fatalf("Parse(Format(...)): %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("round trip length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "1,2,3", "[1,2", "[a,b]", "{1,2}"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	out, err := Parse("[]")
	if err != nil {
		t.Fatalf("Parse empty vector: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Parse(\"[]\") = %v, want empty", out)
	}
}
