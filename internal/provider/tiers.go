package provider

import (
	"context"

	"go.uber.org/zap"

	"trendsift/internal/config"
)

// TiersFromConfig builds the ordered tier list from the provider
// configuration. Priority is fixed: claude-cli (subscription) first, then
// the Anthropic API, then Gemini, so the cheapest billing is tried
// first. A tier with no credential (or a disabled CLI) is simply absent.
func TiersFromConfig(ctx context.Context, cfg config.ProvidersConfig, logger *zap.Logger) []Tier {
	if logger == nil {
		logger = zap.NewNop()
	}
	var tiers []Tier

	if cfg.ClaudeCLI.Enabled {
		cli := NewClaudeCLIClient(&cfg.ClaudeCLI)
		tiers = append(tiers, Tier{
			Name:      "claude-cli",
			Client:    cli,
			Available: cli.Available,
		})
	}

	if cfg.Anthropic.APIKey != "" {
		client := NewAnthropicClientWithConfig(AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			BaseURL: DefaultAnthropicConfig("").BaseURL,
			Model:   cfg.Anthropic.Model,
			Timeout: DefaultAnthropicConfig("").Timeout,
		})
		tiers = append(tiers, Tier{Name: "anthropic", Client: client})
	}

	if cfg.Gemini.APIKey != "" {
		client, err := NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("gemini tier unavailable", zap.Error(err))
		} else {
			tiers = append(tiers, Tier{Name: "gemini", Client: client})
		}
	}

	return tiers
}
