// Package config loads and validates the pipeline configuration from an
// optional YAML file plus environment variable overrides. Validation
// failures are fatal: they are reported before any item is processed and a
// run never starts with an invalid configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// VerificationConfig controls the verification stage.
type VerificationConfig struct {
	// MaxItems caps how many items are submitted for model verification per
	// run. Items beyond the cap resolve to unverified without a model call.
	MaxItems int `yaml:"max_items"`
	// Concurrency bounds simultaneous verification calls.
	Concurrency int `yaml:"concurrency"`
	// Skip resolves every item to unverified with zero model calls.
	Skip bool `yaml:"skip"`
}

// ScoringConfig controls the scoring stage.
type ScoringConfig struct {
	// BatchSize is the number of items scored per model call. Batches are
	// processed sequentially so the model sees a coherent comparison set.
	BatchSize int `yaml:"batch_size"`
	// Skip routes every batch directly to the heuristic scorer.
	Skip bool `yaml:"skip"`
}

// ClaudeCLIConfig configures the subscription CLI tier.
type ClaudeCLIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
	Model   string `yaml:"model"`
	// Timeout is in seconds to keep the YAML surface simple.
	Timeout int `yaml:"timeout"`
}

// APIProviderConfig configures a direct-API tier. The key is usually left
// empty in YAML and supplied through the environment.
type APIProviderConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ProvidersConfig holds per-tier settings. Tier priority is fixed:
// claude-cli (subscription, cheapest) > anthropic > gemini.
type ProvidersConfig struct {
	ClaudeCLI ClaudeCLIConfig   `yaml:"claude_cli"`
	Anthropic APIProviderConfig `yaml:"anthropic"`
	Gemini    APIProviderConfig `yaml:"gemini"`
}

// Config is the full pipeline configuration surface.
type Config struct {
	Verification VerificationConfig `yaml:"verification"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Providers    ProvidersConfig    `yaml:"providers"`
	// TopN truncates the final ranked output.
	TopN int `yaml:"top_n"`
	// CallTimeoutMS is the per-model-call hard timeout in milliseconds.
	CallTimeoutMS int `yaml:"call_timeout_ms"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Verification: VerificationConfig{
			MaxItems:    20,
			Concurrency: 3,
		},
		Scoring: ScoringConfig{
			BatchSize: 10,
		},
		Providers: ProvidersConfig{
			ClaudeCLI: ClaudeCLIConfig{
				Enabled: true,
				Binary:  "claude",
				Model:   "sonnet",
				Timeout: 300,
			},
			Anthropic: APIProviderConfig{Model: "claude-sonnet-4-20250514"},
			Gemini:    APIProviderConfig{Model: "gemini-2.5-flash"},
		},
		TopN:          25,
		CallTimeoutMS: 120_000,
	}
}

// Load reads the YAML file at path (if path is non-empty and the file
// exists), applies environment overrides, and validates. A missing file at
// an explicitly requested path is an error; an empty path just means
// defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. Credentials
// in particular are normally supplied this way rather than in YAML.
func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("TRENDSIFT_SKIP_VERIFICATION"); v != "" {
		c.Verification.Skip = isTruthy(v)
	}
	if v := os.Getenv("TRENDSIFT_SKIP_SCORING"); v != "" {
		c.Scoring.Skip = isTruthy(v)
	}
	if n, ok := envInt("TRENDSIFT_MAX_VERIFICATIONS"); ok {
		c.Verification.MaxItems = n
	}
	if n, ok := envInt("TRENDSIFT_CONCURRENCY"); ok {
		c.Verification.Concurrency = n
	}
	if n, ok := envInt("TRENDSIFT_SCORING_BATCH_SIZE"); ok {
		c.Scoring.BatchSize = n
	}
	if n, ok := envInt("TRENDSIFT_TOP_N"); ok {
		c.TopN = n
	}
	if n, ok := envInt("TRENDSIFT_CALL_TIMEOUT_MS"); ok {
		c.CallTimeoutMS = n
	}
	if v := os.Getenv("TRENDSIFT_CLAUDE_CLI"); v != "" {
		c.Providers.ClaudeCLI.Enabled = isTruthy(v)
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	}
	return false
}

// Validate checks limits. Credential presence is not checked here: the
// provider factory decides tier availability, and only the absence of every
// tier is fatal (at router construction, still before any item runs).
func (c Config) Validate() error {
	if c.Verification.MaxItems < 0 {
		return fmt.Errorf("verification.max_items must be >= 0, got %d", c.Verification.MaxItems)
	}
	if c.Verification.Concurrency < 1 {
		return fmt.Errorf("verification.concurrency must be >= 1, got %d", c.Verification.Concurrency)
	}
	if c.Scoring.BatchSize < 1 {
		return fmt.Errorf("scoring.batch_size must be >= 1, got %d", c.Scoring.BatchSize)
	}
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", c.TopN)
	}
	if c.CallTimeoutMS < 1 {
		return fmt.Errorf("call_timeout_ms must be >= 1, got %d", c.CallTimeoutMS)
	}
	return nil
}

// CallTimeout returns the per-call budget as a duration.
func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}
