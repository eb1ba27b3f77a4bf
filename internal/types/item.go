// Package types defines the data contracts shared across the trendsift
// pipeline: collected items from upstream collectors, verification results,
// and scored output for the downstream synthesis stage.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every item produced or re-emitted by the
// pipeline. Collectors on older schema versions are still accepted as long
// as the structural decoders in the ingest package recognize them.
const SchemaVersion = "1.0.0"

// itemNamespace is the UUIDv5 namespace for deterministic item IDs.
// It matches the namespace used by the collectors so the same
// url:contentHash pair always maps to the same ID across languages.
var itemNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Engagement holds the raw engagement counters reported by a collector.
// Counters are source-specific; absent counters are zero. Negative values
// can appear in scraped data and are treated as zero by every consumer.
type Engagement struct {
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Views       int64 `json:"views,omitempty"`
	Impressions int64 `json:"impressions,omitempty"`
}

// CollectedItem is one piece of content gathered by an external collector.
// It is immutable once produced: the pipeline decorates items with
// verification and scoring data but never rewrites these fields.
type CollectedItem struct {
	ID            string     `json:"id"`
	SchemaVersion string     `json:"schemaVersion"`
	Source        string     `json:"source"`
	SourceURL     string     `json:"sourceUrl"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	ContentHash   string     `json:"contentHash"`
	Author        string     `json:"author,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	RetrievedAt   time.Time  `json:"retrievedAt"`
	Engagement    Engagement `json:"engagement"`
	Citations     []string   `json:"citations,omitempty"`
}

// NewItemID derives the stable UUIDv5 identifier for an item from its
// canonical URL and content fingerprint.
func NewItemID(sourceURL, contentHash string) string {
	return uuid.NewSHA1(itemNamespace, []byte(fmt.Sprintf("%s:%s", sourceURL, contentHash))).String()
}

// HashContent returns the 16-hex-character SHA-256 fingerprint of content,
// the same truncated digest the collectors emit.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
