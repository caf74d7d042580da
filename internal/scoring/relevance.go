package scoring

import "math"

// Relevance scores a post embedding against every taxonomy embedding. The
// blend rewards unambiguous matches: a post tied between two topics scores
// lower than one clearly matching a single topic at the same top similarity.
// Fails closed on an empty taxonomy.
func Relevance(postVec []float32, taxonomy map[string][]float32) (score float64, bestLabel string, bestSim float64) {
	if len(taxonomy) == 0 || len(postVec) == 0 {
		return 0, "unknown", 0
	}

	best := math.Inf(-1)
	secondBest := math.Inf(-1)
	bestLabel = "unknown"
	for label, vec := range taxonomy {
		sim := Cosine(postVec, vec)
		switch {
		case sim > best:
			secondBest = best
			best = sim
			bestLabel = label
		case sim == best:
			// Exact tie: the margin collapses and the winner must not
			// depend on map iteration order, so the smaller label wins.
			secondBest = best
			if label < bestLabel {
				bestLabel = label
			}
		case sim > secondBest:
			secondBest = sim
		}
	}

	margin := 0.0
	if !math.IsInf(secondBest, -1) {
		margin = math.Max(0, best-secondBest)
	} else {
		// Single-node taxonomy: the match is unambiguous by definition.
		margin = best
	}

	return clamp01(0.8*best + 0.2*margin), bestLabel, best
}

// Cosine computes cosine similarity between two vectors. Returns 0 for
// mismatched lengths or zero-magnitude inputs.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
