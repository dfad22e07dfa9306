package textutil

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for gram, count := range a.grams {
		if other, ok := b.grams[gram]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Similarity compares two strings by their fingerprints.
func Similarity(a, b string) float64 {
	return CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
}

// BestMatch returns the candidate most similar to target when its score is at
// least threshold. Ties keep the earlier candidate.
func BestMatch(target string, candidates []string, threshold float64) (string, bool) {
	fp := NewFingerprint(target)
	if fp == nil {
		return "", false
	}
	var (
		best      string
		bestScore float64
	)
	for _, candidate := range candidates {
		score := CosineSimilarity(fp, NewFingerprint(candidate))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best == "" || bestScore < threshold {
		return "", false
	}
	return best, true
}
