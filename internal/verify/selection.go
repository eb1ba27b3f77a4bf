// Package verify implements the verification stage: capped item selection,
// per-item model calls behind the fallback router, a run-scoped circuit
// breaker, and the deterministic mapping from model judgments to
// verification levels.
package verify

import (
	"sort"
	"time"

	"trendsift/internal/types"
)

// selectionScore blends normalized engagement (70%) and recency (30%).
// This ordering only decides which items get a paid verification call; it
// is deliberately distinct from the scoring stage's final ranking formula
// and must not be unified with it.
const (
	selectionEngagementWeight = 0.70
	selectionRecencyWeight    = 0.30
)

// rawEngagement flattens the counters into a single magnitude. Shares
// signal harder than comments, comments harder than likes; impressions are
// heavily discounted since they are passive. Negative counters contribute
// zero.
func rawEngagement(e types.Engagement) float64 {
	pos := func(n int64) float64 {
		if n < 0 {
			return 0
		}
		return float64(n)
	}
	return 3*pos(e.Shares) + 2*pos(e.Comments) + pos(e.Likes) + pos(e.Impressions)/10
}

// recencyFraction maps item age onto [0,1]: 1 within 24 hours, 0 beyond 7
// days, linear in between. Falls back to RetrievedAt when the collector
// did not report a publish time.
func recencyFraction(item types.CollectedItem, now time.Time) float64 {
	ts := item.RetrievedAt
	if item.PublishedAt != nil {
		ts = *item.PublishedAt
	}
	age := now.Sub(ts)
	switch {
	case age <= 24*time.Hour:
		return 1
	case age >= 7*24*time.Hour:
		return 0
	default:
		span := float64(7*24*time.Hour - 24*time.Hour)
		return 1 - float64(age-24*time.Hour)/span
	}
}

// selectForVerification returns the indexes of the items that should be
// submitted for model verification, at most max of them, ordered by the
// 70/30 engagement/recency blend descending. The cap bounds paid model
// calls under adversarial input volumes.
func selectForVerification(items []types.CollectedItem, max int, now time.Time) []int {
	if max <= 0 || len(items) == 0 {
		return nil
	}

	maxEngagement := 0.0
	for _, item := range items {
		if e := rawEngagement(item.Engagement); e > maxEngagement {
			maxEngagement = e
		}
	}

	type candidate struct {
		index int
		score float64
	}
	candidates := make([]candidate, len(items))
	for i, item := range items {
		engNorm := 0.0
		if maxEngagement > 0 {
			engNorm = rawEngagement(item.Engagement) / maxEngagement
		}
		candidates[i] = candidate{
			index: i,
			score: selectionEngagementWeight*engNorm + selectionRecencyWeight*recencyFraction(item, now),
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if max > len(candidates) {
		max = len(candidates)
	}
	selected := make([]int, max)
	for i := 0; i < max; i++ {
		selected[i] = candidates[i].index
	}
	return selected
}
