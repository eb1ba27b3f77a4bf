// Package pipeline wires the stages together: provider tiers, verification,
// scoring, final ranked output.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trendsift/internal/config"
	"trendsift/internal/provider"
	"trendsift/internal/score"
	"trendsift/internal/types"
	"trendsift/internal/verify"
)

// RunContext carries per-run one-shot state shared by the stages. Flags
// live here instead of package globals so runs stay independent and tests
// never leak state into each other.
type RunContext struct {
	complianceOnce sync.Once
}

// NewRunContext creates the per-run state object.
func NewRunContext() *RunContext {
	return &RunContext{}
}

// WarnComplianceOnce logs the scraped-content compliance reminder at most
// once for this run, however many stages call it.
func (rc *RunContext) WarnComplianceOnce(logger *zap.Logger) {
	rc.complianceOnce.Do(func() {
		logger.Warn("input items contain scraped third-party content; downstream use must respect each source platform's terms of service")
	})
}

// Run executes the full pipeline over the collected items and returns the
// ranked top-N. Per-item verification failures and per-batch scoring
// failures resolve to degraded results instead of aborting; the only
// errors returned are configuration errors raised before any item is
// processed.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger, items []types.CollectedItem) ([]types.ScoredItem, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(items) == 0 {
		return []types.ScoredItem{}, nil
	}

	rc := NewRunContext()
	rc.WarnComplianceOnce(logger)

	// With both stages skipped the run is fully offline and needs no router;
	// otherwise at least one provider tier must exist before any item runs.
	var router *provider.Router
	if !cfg.Verification.Skip || !cfg.Scoring.Skip {
		tiers := provider.TiersFromConfig(ctx, cfg.Providers, logger)
		var err error
		router, err = provider.NewRouter(logger, tiers...)
		if err != nil {
			return nil, err
		}
		logger.Info("provider tiers configured", zap.Strings("tiers", router.TierNames()))
	} else {
		logger.Info("verification and scoring both skipped; running offline")
	}

	logger.Info("pipeline starting", zap.Int("items", len(items)))

	verified := verify.New(router, cfg, logger).Run(ctx, items)
	scored := score.New(router, cfg, logger).Run(ctx, verified)

	logger.Info("pipeline complete",
		zap.Int("input_items", len(items)),
		zap.Int("ranked_items", len(scored)))
	return scored, nil
}
