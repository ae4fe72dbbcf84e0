package search

import (
	"sort"

	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

// Composite score weights. Similarity is the strongest typo-tolerant signal,
// rank rewards exact linguistic matches, edit distance penalizes divergence.
const (
	similarityWeight    = 2.0
	editDistancePenalty = 0.15

	// editDistanceDefault substitutes for a missing edit-distance signal:
	// keeps the penalty present but small for high-similarity candidates.
	editDistanceDefault = 10

	// scoreFloor is the composite-score acceptance cutoff.
	scoreFloor = 0.05
)

// acceptance holds per-length-class acceptance thresholds.
type acceptance struct {
	Similarity   float64
	EditDistance int
}

// acceptanceByLength maps query length class to thresholds. Short queries get
// looser similarity but a tighter edit-distance bound.
var acceptanceByLength = map[domain.LengthClass]acceptance{
	domain.LengthShort:  {Similarity: 0.10, EditDistance: 5},
	domain.LengthNormal: {Similarity: 0.20, EditDistance: 8},
}

// compositeScore folds the candidate's signals into a single scalar.
func compositeScore(c domain.Candidate) float64 {
	dist := editDistanceDefault
	if c.NameEditDistance != nil {
		dist = *c.NameEditDistance
	}
	return c.NameSimilarity*similarityWeight + c.Rank - float64(dist)*editDistancePenalty
}

// accept applies the OR-of-signals policy: a candidate weak on one axis may
// still be relevant on another, and the union avoids false negatives from
// any single metric.
func accept(c domain.Candidate, th acceptance) bool {
	if c.CompositeScore > scoreFloor {
		return true
	}
	if c.NameSimilarity > th.Similarity {
		return true
	}
	return c.NameEditDistance != nil && *c.NameEditDistance <= th.EditDistance
}

// scoreCandidates computes composite scores, filters by the acceptance policy
// for the given length class, sorts by score descending (stable: retrieval
// order breaks ties) and truncates to limit.
func scoreCandidates(cands []domain.Candidate, class domain.LengthClass, limit int) []domain.Candidate {
	th := acceptanceByLength[class]

	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		c.CompositeScore = compositeScore(c)
		if accept(c, th) {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompositeScore > out[j].CompositeScore
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dedupe collapses candidates sharing a (name, description) pair, keeping
// the first occurrence: retrieval order already encodes the tie-break.
func dedupe(cands []domain.Candidate) []domain.Candidate {
	if len(cands) < 2 {
		return cands
	}
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := c.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
