package ingest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"trendsift/internal/types"
)

const collectorItem = `{
	"id": "11111111-2222-3333-4444-555555555555",
	"schemaVersion": "1.0.0",
	"source": "googletrends",
	"sourceUrl": "https://trends.google.com/trends/explore?q=ai+agents&geo=US",
	"retrievedAt": "2026-08-30T12:00:00Z",
	"content": "'ai agents' is currently trending on Google in US.",
	"contentHash": "deadbeefdeadbeef",
	"title": "Trending: ai agents",
	"engagement": {"impressions": 10000, "likes": 0, "shares": 0, "comments": 0},
	"citations": ["https://trends.google.com/trends/explore?q=ai+agents&geo=US"]
}`

func TestDecodeEnvelope(t *testing.T) {
	data := []byte(`{"items": [` + collectorItem + `]}`)
	items, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Source != "googletrends" {
		t.Errorf("Source = %q", items[0].Source)
	}
	if items[0].Engagement.Impressions != 10000 {
		t.Errorf("Impressions = %d", items[0].Engagement.Impressions)
	}
}

func TestDecodeEnvelopeWithEmptyItems(t *testing.T) {
	items, err := Decode([]byte(`{"items": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

func TestDecodeCollectorError(t *testing.T) {
	_, err := Decode([]byte(`{"items": [], "error": "PyTrends not installed"}`))
	var ce *CollectorError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CollectorError", err)
	}
	if ce.Message != "PyTrends not installed" {
		t.Errorf("Message = %q", ce.Message)
	}
}

func TestDecodeBareArray(t *testing.T) {
	data := []byte(`[` + collectorItem + `,` + collectorItem + `]`)
	items, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestDecodeSingleItem(t *testing.T) {
	items, err := Decode([]byte(collectorItem))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestDecodeDerivesMissingIDAndHash(t *testing.T) {
	data := []byte(`{"items": [{
		"source": "x",
		"sourceUrl": "https://x.com/u/status/1",
		"content": "short take",
		"retrievedAt": "2026-08-30T12:00:00Z",
		"engagement": {"likes": 3, "shares": 1, "comments": 0}
	}]}`)

	items, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	wantHash := types.HashContent("short take")
	if items[0].ContentHash != wantHash {
		t.Errorf("ContentHash = %q, want %q", items[0].ContentHash, wantHash)
	}
	wantID := types.NewItemID("https://x.com/u/status/1", wantHash)
	if items[0].ID != wantID {
		t.Errorf("ID = %q, want %q", items[0].ID, wantID)
	}
	if items[0].SchemaVersion != types.SchemaVersion {
		t.Errorf("SchemaVersion = %q", items[0].SchemaVersion)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not json", "hello world"},
		{"unknown shape", `{"records": [1, 2, 3]}`},
		{"item with nothing", `{"items": [{"source": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestDecodePreservesRawCounters(t *testing.T) {
	// Negative counters are preserved at ingest; scorers zero them.
	data := []byte(`{"items": [{
		"source": "x",
		"sourceUrl": "https://x.com/u/status/2",
		"content": "hmm",
		"retrievedAt": "2026-08-30T12:00:00Z",
		"engagement": {"likes": -5, "shares": 2, "comments": 0}
	}]}`)

	items, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := types.Engagement{Likes: -5, Shares: 2}
	if diff := cmp.Diff(want, items[0].Engagement, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("engagement mismatch (-want +got):\n%s", diff)
	}
}
