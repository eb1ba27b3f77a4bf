package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// VerificationLevel classifies how strongly an item's claims are
// corroborated by independent sources. Levels are totally ordered;
// comparisons with < and > are meaningful.
type VerificationLevel int

const (
	// LevelUnverified means no corroborating source was found (or
	// verification was skipped / failed for this item).
	LevelUnverified VerificationLevel = iota
	// LevelSourceConfirmed means exactly one independent source corroborates.
	LevelSourceConfirmed
	// LevelMultisourceConfirmed means two or more independent sources corroborate.
	LevelMultisourceConfirmed
	// LevelPrimarySource means the content itself is a primary source.
	LevelPrimarySource
)

var levelNames = map[VerificationLevel]string{
	LevelUnverified:           "unverified",
	LevelSourceConfirmed:      "source_confirmed",
	LevelMultisourceConfirmed: "multisource_confirmed",
	LevelPrimarySource:        "primary_source",
}

func (l VerificationLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(l))
}

// MarshalJSON emits the level as its string name.
func (l VerificationLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the string names produced by MarshalJSON.
// Unrecognized names decode to LevelUnverified rather than failing,
// so a degraded upstream record never poisons a whole batch decode.
func (l *VerificationLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for level, name := range levelNames {
		if name == s {
			*l = level
			return nil
		}
	}
	*l = LevelUnverified
	return nil
}

// QuoteCheck records the verification outcome for one quote attributed to
// the item. Invariant: Verified implies SourceURL is non-empty; the verify
// orchestrator drops entries that violate this before they reach consumers.
type QuoteCheck struct {
	Quote     string `json:"quote"`
	Verified  bool   `json:"verified"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Verification is the result of cross-checking one item against the web.
type Verification struct {
	Level          VerificationLevel `json:"level"`
	Confidence     float64           `json:"confidence"`
	SourcesFound   []string          `json:"sourcesFound,omitempty"`
	QuotesVerified []QuoteCheck      `json:"quotesVerified,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CheckedAt      time.Time         `json:"checkedAt"`
}

// VerifiedItem pairs a collected item with its verification. Created exactly
// once per item per run; never re-verified within a run.
type VerifiedItem struct {
	CollectedItem
	Verification Verification `json:"verification"`
}
