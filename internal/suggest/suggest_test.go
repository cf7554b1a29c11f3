// internal/suggest/suggest_test.go
package suggest

import (
	"math"
	"testing"
)

func TestCosine_IdenticalVectors(t *testing.T) {
	v := []float32{0.5, 0.5, 0.7}
	got := cosine(v, v)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosine(v, v) = %v, want 1.0", got)
	}
}

func TestCosine_OrthogonalVectors(t *testing.T) {
	got := cosine([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("cosine of orthogonal vectors = %v, want 0", got)
	}
}

func TestCosine_OppositeVectors(t *testing.T) {
	got := cosine([]float32{1, 1}, []float32{-1, -1})
	if math.Abs(got-(-1.0)) > 1e-9 {
		t.Errorf("cosine of opposite vectors = %v, want -1.0", got)
	}
}

func TestCosine_MismatchedLengths(t *testing.T) {
	if got := cosine([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("cosine of mismatched vectors = %v, want 0", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	if got := cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("cosine with zero vector = %v, want 0", got)
	}
}

func TestRank_BestFirst(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},      // orthogonal
		{1, 0.05},   // nearly aligned
		{-1, 0},     // opposite
		{0.9, 0.2},  // aligned but wider angle
	}
	labels := []string{"orthogonal", "best", "opposite", "second"}

	ranked := rank(query, candidates, labels)

	if len(ranked) != 4 {
		t.Fatalf("rank() returned %d entries, want 4", len(ranked))
	}
	if ranked[0].Phrase != "best" {
		t.Errorf("ranked[0] = %q, want %q", ranked[0].Phrase, "best")
	}
	if ranked[1].Phrase != "second" {
		t.Errorf("ranked[1] = %q, want %q", ranked[1].Phrase, "second")
	}
	if ranked[3].Phrase != "opposite" {
		t.Errorf("ranked[3] = %q, want %q", ranked[3].Phrase, "opposite")
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRank_TiesKeepOriginalOrder(t *testing.T) {
	query := []float32{1, 0}
	same := []float32{1, 0}
	ranked := rank(query, [][]float32{same, same, same}, []string{"a", "b", "c"})

	want := []string{"a", "b", "c"}
	for i, w := range want {
		if ranked[i].Phrase != w {
			t.Errorf("ranked[%d] = %q, want %q", i, ranked[i].Phrase, w)
		}
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	ranked := rank([]float32{1}, nil, nil)
	if len(ranked) != 0 {
		t.Errorf("rank() with no candidates returned %d entries", len(ranked))
	}
}
