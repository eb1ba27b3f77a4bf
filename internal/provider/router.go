package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoTiers is returned when a router is constructed with no available
// tier. This is a configuration error: it is raised before any item is
// processed, never as a per-item failure.
var ErrNoTiers = errors.New("no provider tier is configured; set ANTHROPIC_API_KEY or GEMINI_API_KEY, or install the claude CLI")

// Tier is one concrete strategy for invoking the same logical model
// operation. Available is an optional pre-check that avoids a doomed call
// on an unconfigured tier.
type Tier struct {
	Name      string
	Client    Client
	Available func() bool
}

// Router tries tiers strictly in priority order, never in parallel: the
// caller orders tiers cheapest/most-reliable first and the first available
// tier that succeeds wins.
type Router struct {
	tiers  []Tier
	logger *zap.Logger
}

// NewRouter builds a router over the given tiers. At least one tier whose
// Available pre-check passes must exist, otherwise ErrNoTiers.
func NewRouter(logger *zap.Logger, tiers ...Tier) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	usable := 0
	for _, t := range tiers {
		if t.Available == nil || t.Available() {
			usable++
		}
	}
	if usable == 0 {
		return nil, ErrNoTiers
	}
	return &Router{tiers: tiers, logger: logger}, nil
}

// TierNames returns the configured tier names in priority order.
func (r *Router) TierNames() []string {
	names := make([]string, 0, len(r.tiers))
	for _, t := range r.tiers {
		names = append(names, t.Name)
	}
	return names
}

// Complete invokes the logical completion operation through the tier chain
// and reports which tier succeeded. Every tier failure is captured in
// order; if the final tier fails, the returned error cross-references how
// many tiers were attempted and wraps all of them.
func (r *Router) Complete(ctx context.Context, systemPrompt, userPrompt string) (text, tier string, err error) {
	var failures []error
	attempted := 0

	for _, t := range r.tiers {
		if t.Available != nil && !t.Available() {
			r.logger.Debug("skipping unavailable tier", zap.String("tier", t.Name))
			continue
		}
		attempted++

		result, callErr := t.Client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
		if callErr == nil {
			r.logger.Debug("tier succeeded",
				zap.String("tier", t.Name),
				zap.Int("position", attempted))
			return result, t.Name, nil
		}

		failures = append(failures, fmt.Errorf("tier %s: %w", t.Name, callErr))
		r.logger.Warn("tier failed, falling back",
			zap.String("tier", t.Name),
			zap.Error(callErr))

		// Caller cancellation ends the chain: later tiers would inherit the
		// same dead context.
		if ctx.Err() != nil {
			break
		}
	}

	return "", "", fmt.Errorf("all %d provider tiers failed: %w", attempted, errors.Join(failures...))
}
