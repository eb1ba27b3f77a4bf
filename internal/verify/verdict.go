package verify

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"trendsift/internal/repair"
	"trendsift/internal/types"
)

// verdict is the model's raw verification judgment, decoded at the system
// boundary. Everything downstream works on the typed Verification built
// from it; nothing re-validates these fields later.
type verdict struct {
	IsPrimarySource bool               `json:"isPrimarySource"`
	Confidence      float64            `json:"confidence"`
	SourcesFound    []string           `json:"sourcesFound"`
	QuotesVerified  []types.QuoteCheck `json:"quotesVerified"`
	Notes           string             `json:"notes"`
}

// verdictSchemaHint is shown to the model both in the verification prompt
// and in repair prompts.
const verdictSchemaHint = `{
  "isPrimarySource": true|false,
  "confidence": 0.0-1.0,
  "sourcesFound": ["https://..."],
  "quotesVerified": [{"quote": "...", "verified": true|false, "sourceUrl": "https://..."}],
  "notes": "..."
}`

// parseVerdict extracts and decodes a verdict from raw model text.
func parseVerdict(response string) (*verdict, error) {
	jsonStr := repair.ExtractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in verification response")
	}
	var v verdict
	if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
		return nil, fmt.Errorf("decode verification verdict: %w", err)
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return &v, nil
}

// mapLevel is the deterministic verification-level assignment. Primary
// source status dominates regardless of corroborating-source count;
// otherwise the count alone decides. Pure, unit-testable without any
// network mocking.
func mapLevel(isPrimary bool, sourcesFound int) types.VerificationLevel {
	if isPrimary {
		return types.LevelPrimarySource
	}
	switch {
	case sourcesFound >= 2:
		return types.LevelMultisourceConfirmed
	case sourcesFound == 1:
		return types.LevelSourceConfirmed
	default:
		return types.LevelUnverified
	}
}

// sanitizeQuotes enforces the quote invariant: a verified quote must carry
// a source URL. Violating entries are dropped with a warning rather than
// downgrading the item's level.
func sanitizeQuotes(quotes []types.QuoteCheck, itemID string, logger *zap.Logger) []types.QuoteCheck {
	out := quotes[:0:0]
	for _, q := range quotes {
		if q.Verified && q.SourceURL == "" {
			logger.Warn("dropping verified quote with no source URL",
				zap.String("item_id", itemID),
				zap.String("quote", q.Quote))
			continue
		}
		out = append(out, q)
	}
	return out
}
