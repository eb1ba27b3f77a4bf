// Package ingest decodes collector output into typed CollectedItem records.
// Collectors emit a few known shapes; each shape has its own strict decoder
// and the decoders are tried in a fixed priority order. The first
// structurally valid match wins; there is no best-effort field guessing.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trendsift/internal/types"
)

// CollectorError is a collector-reported failure: the collector ran but
// produced an error message instead of items.
type CollectorError struct {
	Message string
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector reported error: %s", e.Message)
}

// envelope is the standard collector stdout shape: {"items": [...]} with an
// optional error string.
type envelope struct {
	Items []types.CollectedItem `json:"items"`
	Error string                `json:"error,omitempty"`
}

// Decode parses raw collector output. Decoder priority:
//  1. collector envelope {"items": [...], "error": ...}
//  2. bare JSON array of items
//  3. single item object
//
// Items are normalized after decoding: missing fingerprints and IDs are
// derived, and items with neither content nor a source URL are rejected.
func Decode(data []byte) ([]types.CollectedItem, error) {
	items, err := decodeShape(data)
	if err != nil {
		return nil, err
	}

	out := make([]types.CollectedItem, 0, len(items))
	for i, item := range items {
		normalized, err := normalize(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func decodeShape(data []byte) ([]types.CollectedItem, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty collector output")
	}

	// 1. Envelope.
	var env envelope
	if err := strictUnmarshal(data, &env); err == nil && (env.Items != nil || env.Error != "") {
		if len(env.Items) == 0 && env.Error != "" {
			return nil, &CollectorError{Message: env.Error}
		}
		return env.Items, nil
	}

	// 2. Bare array.
	var list []types.CollectedItem
	if err := strictUnmarshal(data, &list); err == nil {
		return list, nil
	}

	// 3. Single item.
	var one types.CollectedItem
	if err := strictUnmarshal(data, &one); err == nil && (one.Content != "" || one.SourceURL != "") {
		return []types.CollectedItem{one}, nil
	}

	return nil, fmt.Errorf("collector output matches no known shape")
}

// strictUnmarshal rejects unknown fields so a shape mismatch fails instead
// of silently decoding into the wrong structure.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// normalize fills derived fields and enforces the minimal structural
// contract. Engagement counters are left as reported; negative values are
// zeroed by the scorers, not here, so the raw record stays faithful to the
// collector.
func normalize(item types.CollectedItem) (types.CollectedItem, error) {
	if item.Content == "" && item.SourceURL == "" {
		return types.CollectedItem{}, fmt.Errorf("item has neither content nor source URL")
	}

	if item.ContentHash == "" {
		item.ContentHash = types.HashContent(item.Content)
	}
	if item.ID == "" {
		item.ID = types.NewItemID(item.SourceURL, item.ContentHash)
	}
	if item.SchemaVersion == "" {
		item.SchemaVersion = types.SchemaVersion
	}
	if item.RetrievedAt.IsZero() {
		item.RetrievedAt = time.Now().UTC()
	}
	return item, nil
}
