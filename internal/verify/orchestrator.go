package verify

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trendsift/internal/config"
	"trendsift/internal/provider"
	"trendsift/internal/repair"
	"trendsift/internal/retry"
	"trendsift/internal/types"
)

// Notes attached to items that never reach a successful model verdict.
const (
	noteSkipped        = "verification skipped by configuration"
	noteCapped         = "not selected for verification (volume cap)"
	noteCircuitBreaker = "verification halted: circuit breaker tripped by an earlier timeout"
	noteCancelled      = "verification cancelled before this item was processed"
)

// Orchestrator runs the verification stage. One Orchestrator value serves
// one pipeline run; the circuit breaker latch is scoped to it and never
// persisted.
type Orchestrator struct {
	router *provider.Router
	cfg    config.Config
	logger *zap.Logger
	policy retry.Policy
	now    func() time.Time

	// breakerOpen flips once, on the first timeout-classified failure, and
	// never resets within the run. Concurrent item tasks read and write it;
	// atomic.Bool keeps the open transition one-way under races.
	breakerOpen atomic.Bool
}

// New creates a verification orchestrator for a single run.
func New(router *provider.Router, cfg config.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := retry.DefaultPolicy()
	policy.Timeout = cfg.CallTimeout()
	return &Orchestrator{
		router: router,
		cfg:    cfg,
		logger: logger,
		policy: policy,
		now:    time.Now,
	}
}

// Run verifies the collected items and returns one VerifiedItem per input,
// in input order. Every item resolves to a terminal verification level;
// per-item failures never abort the batch. With an empty input it returns
// an empty slice and makes zero model calls.
func (o *Orchestrator) Run(ctx context.Context, items []types.CollectedItem) []types.VerifiedItem {
	out := make([]types.VerifiedItem, len(items))
	if len(items) == 0 {
		return out
	}

	if o.cfg.Verification.Skip {
		o.logger.Info("verification skipped by configuration", zap.Int("items", len(items)))
		for i, item := range items {
			out[i] = o.unverified(item, noteSkipped)
		}
		return out
	}

	selected := selectForVerification(items, o.cfg.Verification.MaxItems, o.now())
	selectedSet := make(map[int]bool, len(selected))
	for _, idx := range selected {
		selectedSet[idx] = true
	}

	o.logger.Info("verification starting",
		zap.Int("items", len(items)),
		zap.Int("selected", len(selected)),
		zap.Int("concurrency", o.cfg.Verification.Concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Verification.Concurrency)

	for _, idx := range selected {
		g.Go(func() error {
			out[idx] = o.verifyOne(gctx, items[idx])
			return nil
		})
	}
	// Worker funcs always return nil; failures resolve items instead.
	_ = g.Wait()

	for i, item := range items {
		if !selectedSet[i] {
			out[i] = o.unverified(item, noteCapped)
		}
	}
	return out
}

// verifyOne drives one item through the per-item state machine: breaker
// check, model call, parse, at most one repair, level mapping. It always
// returns a terminal result.
func (o *Orchestrator) verifyOne(ctx context.Context, item types.CollectedItem) types.VerifiedItem {
	if o.breakerOpen.Load() {
		return o.unverified(item, noteCircuitBreaker)
	}
	if ctx.Err() != nil {
		return o.unverified(item, noteCancelled)
	}

	prompt := buildVerificationPrompt(item)

	outcome := retry.Do(ctx, o.logger, "verify:"+item.ID, o.policy, func(ctx context.Context) (string, error) {
		text, tier, err := o.router.Complete(ctx, verifySystemPrompt, prompt)
		if err != nil {
			return "", err
		}
		o.logger.Debug("verification call completed",
			zap.String("item_id", item.ID),
			zap.String("tier", tier))
		return text, nil
	})

	if !outcome.OK() {
		if retry.IsTimeout(outcome.Err) {
			// One-way latch: the first timeout stops all further model
			// calls for the rest of the run.
			if o.breakerOpen.CompareAndSwap(false, true) {
				o.logger.Warn("circuit breaker tripped by verification timeout",
					zap.String("item_id", item.ID),
					zap.Error(outcome.Err))
			}
			return o.unverified(item, noteCircuitBreaker)
		}
		o.logger.Warn("verification call failed",
			zap.String("item_id", item.ID),
			zap.Int("attempts", outcome.Attempts),
			zap.Error(outcome.Err))
		return o.unverified(item, "verification failed: "+outcome.Err.Error())
	}

	v, err := parseVerdict(outcome.Value)
	if err != nil {
		v, err = o.repairVerdict(ctx, outcome.Value, err)
		if err != nil {
			o.logger.Warn("verification response unrecoverable",
				zap.String("item_id", item.ID),
				zap.Error(err))
			return o.unverified(item, "verification response unparseable: "+err.Error())
		}
	}

	level := mapLevel(v.IsPrimarySource, len(v.SourcesFound))
	return types.VerifiedItem{
		CollectedItem: item,
		Verification: types.Verification{
			Level:          level,
			Confidence:     v.Confidence,
			SourcesFound:   v.SourcesFound,
			QuotesVerified: sanitizeQuotes(v.QuotesVerified, item.ID, o.logger),
			Notes:          v.Notes,
			CheckedAt:      o.now(),
		},
	}
}

// repairVerdict runs the one-shot repair loop for a malformed verdict.
func (o *Orchestrator) repairVerdict(ctx context.Context, badOutput string, parseErr error) (*verdict, error) {
	fixed, _, err := repair.Fix(ctx, o.logger, o.router, verdictSchemaHint, badOutput, parseErr)
	if err != nil {
		return nil, err
	}
	return parseVerdict(fixed)
}

func (o *Orchestrator) unverified(item types.CollectedItem, note string) types.VerifiedItem {
	return types.VerifiedItem{
		CollectedItem: item,
		Verification: types.Verification{
			Level:      types.LevelUnverified,
			Confidence: 0,
			Notes:      note,
			CheckedAt:  o.now(),
		},
	}
}
