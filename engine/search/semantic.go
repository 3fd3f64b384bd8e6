package search

import (
	"math"
	"sort"
)

// Policy constants for semantic lookup. Kept configurable via the Semantic
// call rather than baked in; these are the production defaults.
const (
	DefaultMinSimilarity = 0.3
	DefaultMaxResults    = 50
)

// SemanticResult is one vector-similarity hit.
type SemanticResult struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// Semantic ranks the embedding list against a query vector by cosine
// similarity. Results strictly above minSim come back sorted descending,
// capped at limit (limit <= 0 means no cap).
func (ix *Index) Semantic(query []float32, minSim float64, limit int) []SemanticResult {
	if len(query) == 0 {
		return nil
	}

	results := make([]SemanticResult, 0, len(ix.Embeddings))
	for _, entry := range ix.Embeddings {
		sim := CosineSimilarity(query, entry.Embedding)
		if sim > minSim {
			results = append(results, SemanticResult{ID: entry.ID, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// CosineSimilarity returns the cosine of the angle between two vectors, 0 for
// mismatched or zero-length inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
