package types

// Scores holds the four independent 0-100 quality dimensions plus the
// derived overall score. Every field, including Overall, is clamped to
// [0,100] by whichever component produces it.
type Scores struct {
	Relevance           float64 `json:"relevance"`
	Authenticity        float64 `json:"authenticity"`
	Recency             float64 `json:"recency"`
	EngagementPotential float64 `json:"engagementPotential"`
	Overall             float64 `json:"overall"`
}

// ScoredItem is the pipeline's terminal record: a verified item plus its
// scores, the model's reasoning, and a 1-indexed rank. Rank is only
// meaningful relative to the full result set at the moment scoring
// completed; any re-sort must reassign ranks.
type ScoredItem struct {
	VerifiedItem
	Scores    Scores `json:"scores"`
	Reasoning string `json:"reasoning,omitempty"`
	Rank      int    `json:"rank"`
}

// Clamp returns v bounded to [0,100].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AuthenticityBoost is the fixed bonus added to the authenticity dimension
// for a given verification level, on both the model path and the heuristic
// fallback path. The sum is clamped at 100 by the caller.
func AuthenticityBoost(level VerificationLevel) float64 {
	switch level {
	case LevelPrimarySource:
		return 75
	case LevelMultisourceConfirmed:
		return 50
	case LevelSourceConfirmed:
		return 25
	default:
		return 0
	}
}
