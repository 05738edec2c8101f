package matching

import (
	"context"
	"math"

	"github.com/ClearGateLLC/kidpass/shared"
	"github.com/ClearGateLLC/kidpass/store"
)

// Threshold is the minimum cosine similarity for a match to be trusted.
const Threshold = 0.85

// noScore loses against any real cosine value.
const noScore = -1.0

type Matcher struct {
	Logger *shared.Logger `inject:""`
}

// Identify scans candidates in the order given and returns the best-scoring
// one with its cosine similarity. A strictly-greater comparison keeps the
// first candidate seen on ties, so callers must hand candidates over in a
// stable order (the store lists them by ascending guardian id). ok is false
// when no candidate has a usable embedding.
//
// Applying Threshold is the caller's job: the score is reported even when
// the best match is not good enough.
func (m *Matcher) Identify(ctx context.Context, probe store.Embedding, candidates []store.Guardian) (best store.Guardian, bestScore float64, ok bool) {
	bestScore = noScore

	if len(probe) == 0 {
		return store.Guardian{}, noScore, false
	}

	for _, candidate := range candidates {
		if len(candidate.Embedding) == 0 {
			continue
		}
		if len(candidate.Embedding) != len(probe) && m.Logger != nil {
			m.Logger.Warn(ctx, "embedding length mismatch, comparing over common prefix",
				"guardianId", candidate.GuardianId,
				"probeLen", len(probe),
				"candidateLen", len(candidate.Embedding))
		}
		score := CosineSimilarity(probe, candidate.Embedding)
		if score > bestScore {
			bestScore = score
			best = candidate
			ok = true
		}
	}

	if !ok {
		return store.Guardian{}, noScore, false
	}
	return best, bestScore, true
}

// CosineSimilarity compares two vectors over their overlapping prefix
// (n = min(len(a), len(b))). Embeddings are compared by direction only, so
// magnitude drift between model versions does not affect the score. A zero
// norm or an empty prefix scores -1 instead of dividing by zero.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return noScore
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return noScore
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
