// internal/suggest/suggest.go

// Package suggest ranks known example phrases by semantic similarity
// to an unrecognized input, so that a failed parse can answer with
// near-miss shapes instead of a bare error.
package suggest

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// Ranked pairs an example phrase with its similarity to the query.
type Ranked struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// Suggester embeds the grammar example phrases once at startup and
// compares incoming phrases against them.
type Suggester struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	examples []string
	vectors  [][]float32
	mu       sync.Mutex
}

// New loads the sentence embedding model from modelPath and pre-embeds
// the example phrases.
func New(modelPath string, examples []string) (*Suggester, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("creating hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "phrase-suggestions",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	s := &Suggester{
		session:  session,
		pipeline: pipeline,
		examples: examples,
	}

	if len(examples) > 0 {
		vectors, err := s.embed(examples)
		if err != nil {
			session.Destroy()
			return nil, fmt.Errorf("embedding example phrases: %w", err)
		}
		s.vectors = vectors
	}

	return s, nil
}

func (s *Suggester) embed(texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}
	return result.Embeddings, nil
}

// Suggest returns up to limit example phrases most similar to phrase,
// best first. A limit <= 0 defaults to 3.
func (s *Suggester) Suggest(phrase string, limit int) ([]Ranked, error) {
	if limit <= 0 {
		limit = 3
	}
	if len(s.examples) == 0 {
		return nil, nil
	}

	vecs, err := s.embed([]string{phrase})
	if err != nil {
		return nil, fmt.Errorf("embedding phrase: %w", err)
	}

	ranked := rank(vecs[0], s.vectors, s.examples)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Close releases the model session.
func (s *Suggester) Close() error {
	if s.session != nil {
		s.session.Destroy()
	}
	return nil
}

// rank scores every candidate against the query vector, best first.
// Ties keep the candidates' original order.
func rank(query []float32, candidates [][]float32, labels []string) []Ranked {
	ranked := make([]Ranked, 0, len(labels))
	for i := range labels {
		var score float64
		if i < len(candidates) {
			score = cosine(query, candidates[i])
		}
		ranked = append(ranked, Ranked{Phrase: labels[i], Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// cosine returns the cosine similarity of two vectors, or 0 when the
// vectors differ in length or either is zero.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
