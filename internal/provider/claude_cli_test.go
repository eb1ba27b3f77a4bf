package provider

import (
	"errors"
	"testing"
	"time"

	"trendsift/internal/config"
	"trendsift/internal/retry"
)

func TestNewClaudeCLIClient(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.ClaudeCLIConfig
		wantModel   string
		wantTimeout time.Duration
	}{
		{
			name:        "nil config uses defaults",
			cfg:         nil,
			wantModel:   "sonnet",
			wantTimeout: 300 * time.Second,
		},
		{
			name: "custom model",
			cfg: &config.ClaudeCLIConfig{
				Model:   "opus",
				Timeout: 600,
			},
			wantModel:   "opus",
			wantTimeout: 600 * time.Second,
		},
		{
			name: "zero timeout uses default",
			cfg: &config.ClaudeCLIConfig{
				Model: "haiku",
			},
			wantModel:   "haiku",
			wantTimeout: 300 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClaudeCLIClient(tt.cfg)
			if client.GetModel() != tt.wantModel {
				t.Errorf("GetModel() = %q, want %q", client.GetModel(), tt.wantModel)
			}
			if client.GetTimeout() != tt.wantTimeout {
				t.Errorf("GetTimeout() = %v, want %v", client.GetTimeout(), tt.wantTimeout)
			}
		})
	}
}

func TestClaudeCLIParseResponse(t *testing.T) {
	client := NewClaudeCLIClient(nil)

	tests := []struct {
		name          string
		data          []byte
		want          string
		wantErr       bool
		wantRateLimit bool
	}{
		{
			name: "valid response",
			data: []byte(`{"result":{"content":[{"type":"text","text":"hello"}]}}`),
			want: "hello",
		},
		{
			name: "multiple text blocks concatenated",
			data: []byte(`{"result":{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}}`),
			want: "ab",
		},
		{
			name: "non-text blocks ignored",
			data: []byte(`{"result":{"content":[{"type":"tool_use","text":"x"},{"type":"text","text":"kept"}]}}`),
			want: "kept",
		},
		{
			name:    "empty response",
			data:    []byte{},
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			data:    []byte(`not json at all`),
			wantErr: true,
		},
		{
			name:    "no text content",
			data:    []byte(`{"result":{"content":[]}}`),
			wantErr: true,
		},
		{
			name:          "rate limited flag",
			data:          []byte(`{"is_rate_limited":true}`),
			wantErr:       true,
			wantRateLimit: true,
		},
		{
			name:          "rate limit in error message",
			data:          []byte(`{"error":{"type":"api_error","message":"Rate limit exceeded"}}`),
			wantErr:       true,
			wantRateLimit: true,
		},
		{
			name:    "generic error",
			data:    []byte(`{"error":{"type":"api_error","message":"something broke"}}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.parseResponse(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseResponse(%s) succeeded, want error", tt.data)
				}
				var rle *retry.RateLimitError
				if got := errors.As(err, &rle); got != tt.wantRateLimit {
					t.Errorf("rate limit classification = %v, want %v (err: %v)", got, tt.wantRateLimit, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseResponse = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaudeCLIAvailable(t *testing.T) {
	missing := NewClaudeCLIClient(&config.ClaudeCLIConfig{Binary: "definitely-not-a-real-binary-xyz"})
	if missing.Available() {
		t.Error("Available() = true for a binary not on PATH")
	}
}
