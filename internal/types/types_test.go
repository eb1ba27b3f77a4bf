package types

import (
	"encoding/json"
	"testing"
)

func TestVerificationLevelOrdering(t *testing.T) {
	if !(LevelUnverified < LevelSourceConfirmed &&
		LevelSourceConfirmed < LevelMultisourceConfirmed &&
		LevelMultisourceConfirmed < LevelPrimarySource) {
		t.Fatal("verification levels are not totally ordered")
	}
}

func TestVerificationLevelJSON(t *testing.T) {
	tests := []struct {
		name  string
		level VerificationLevel
		want  string
	}{
		{"unverified", LevelUnverified, `"unverified"`},
		{"source confirmed", LevelSourceConfirmed, `"source_confirmed"`},
		{"multisource", LevelMultisourceConfirmed, `"multisource_confirmed"`},
		{"primary", LevelPrimarySource, `"primary_source"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.level)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}

			var back VerificationLevel
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if back != tt.level {
				t.Errorf("round trip = %v, want %v", back, tt.level)
			}
		})
	}
}

func TestVerificationLevelUnmarshalUnknown(t *testing.T) {
	var l VerificationLevel
	if err := json.Unmarshal([]byte(`"somehow_verified"`), &l); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if l != LevelUnverified {
		t.Errorf("unknown level = %v, want LevelUnverified", l)
	}
}

func TestNewItemIDStable(t *testing.T) {
	a := NewItemID("https://example.com/post/1", "deadbeefdeadbeef")
	b := NewItemID("https://example.com/post/1", "deadbeefdeadbeef")
	c := NewItemID("https://example.com/post/2", "deadbeefdeadbeef")

	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different URLs produced the same ID: %s", a)
	}
}

func TestHashContent(t *testing.T) {
	h := HashContent("hello world")
	if len(h) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(h))
	}
	if h != HashContent("hello world") {
		t.Error("fingerprint is not deterministic")
	}
	if h == HashContent("hello worlds") {
		t.Error("distinct content produced identical fingerprints")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{175, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAuthenticityBoost(t *testing.T) {
	tests := []struct {
		level VerificationLevel
		want  float64
	}{
		{LevelUnverified, 0},
		{LevelSourceConfirmed, 25},
		{LevelMultisourceConfirmed, 50},
		{LevelPrimarySource, 75},
	}
	for _, tt := range tests {
		if got := AuthenticityBoost(tt.level); got != tt.want {
			t.Errorf("AuthenticityBoost(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
