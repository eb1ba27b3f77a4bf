// Package score implements the scoring stage: sequential model-scored
// batches with a deterministic heuristic fallback, final ranking, and
// top-N truncation.
package score

import (
	"time"

	"trendsift/internal/types"
)

// Heuristic scoring constants. The heuristic deliberately scores lower
// than typical model output so heuristic-scored items do not out-rank
// model-scored items of equal verification level.
const (
	heuristicRelevance        = 50.0
	heuristicAuthenticityBase = 25.0
	heuristicRecencyFloor     = 20.0
)

// heuristicScore produces scores for one item with no network access.
// Pure: identical inputs and clock always yield identical scores.
func heuristicScore(item types.VerifiedItem, now time.Time) types.Scores {
	s := types.Scores{
		Relevance:           heuristicRelevance,
		Authenticity:        types.Clamp(heuristicAuthenticityBase + types.AuthenticityBoost(item.Verification.Level)),
		Recency:             heuristicRecency(item, now),
		EngagementPotential: heuristicEngagement(item.Engagement),
	}
	// Relevance and model-derived authenticity are unavailable here, so the
	// overall blend differs from the model path and must stay different.
	s.Overall = types.Clamp(0.5*s.Recency + 0.5*s.EngagementPotential)
	return s
}

// heuristicRecency scores age on a 100-to-floor scale: full marks within
// 24 hours, the floor beyond 7 days, linear decay between.
func heuristicRecency(item types.VerifiedItem, now time.Time) float64 {
	ts := item.RetrievedAt
	if item.PublishedAt != nil {
		ts = *item.PublishedAt
	}
	age := now.Sub(ts)
	switch {
	case age <= 24*time.Hour:
		return 100
	case age >= 7*24*time.Hour:
		return heuristicRecencyFloor
	default:
		span := float64(7*24*time.Hour - 24*time.Hour)
		frac := float64(age-24*time.Hour) / span
		return 100 - frac*(100-heuristicRecencyFloor)
	}
}

// heuristicEngagement combines the counters with shares weighted above
// comments above likes, scaled onto [0,100]. Negative counters contribute
// zero.
func heuristicEngagement(e types.Engagement) float64 {
	pos := func(n int64) float64 {
		if n < 0 {
			return 0
		}
		return float64(n)
	}
	raw := 0.5*pos(e.Shares) + 0.3*pos(e.Comments) + 0.2*pos(e.Likes)
	// A weighted magnitude of 1000 saturates the scale.
	return types.Clamp(raw / 10)
}

const heuristicReasoning = "scored heuristically without model input"
