package score

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"trendsift/internal/config"
	"trendsift/internal/provider"
	"trendsift/internal/repair"
	"trendsift/internal/retry"
	"trendsift/internal/types"
)

// Overall weighting on the model path. The heuristic fallback uses its own
// blend; the two are intentionally different and stay that way.
const (
	weightRelevance    = 0.35
	weightAuthenticity = 0.30
	weightRecency      = 0.20
	weightEngagement   = 0.15
)

// Orchestrator runs the scoring stage. Batches are processed strictly
// sequentially so the model sees a coherent comparison set per call and
// call ordering stays predictable.
type Orchestrator struct {
	router *provider.Router
	cfg    config.Config
	logger *zap.Logger
	policy retry.Policy
	now    func() time.Time
}

// New creates a scoring orchestrator for a single run.
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

// Run scores the verified items and returns the ranked top-N, sorted by
// overall score descending with ranks 1..N. Per-batch failures fall back
// to the heuristic scorer for that batch only.
func (o *Orchestrator) Run(ctx context.Context, items []types.VerifiedItem) []types.ScoredItem {
	if len(items) == 0 {
		return []types.ScoredItem{}
	}

	useModel := !o.cfg.Scoring.Skip && o.router != nil
	if !useModel {
		o.logger.Info("scoring via heuristic only", zap.Int("items", len(items)))
	}

	batchSize := o.cfg.Scoring.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	scored := make([]types.ScoredItem, 0, len(items))
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		if useModel && ctx.Err() == nil {
			scored = append(scored, o.scoreBatch(ctx, batch)...)
		} else {
			scored = append(scored, o.heuristicBatch(batch)...)
		}
	}

	return o.finalize(scored)
}

// scoreBatch scores one batch via the model, falling back to the heuristic
// for this batch alone on any unrecoverable failure.
func (o *Orchestrator) scoreBatch(ctx context.Context, batch []types.VerifiedItem) []types.ScoredItem {
	if est := estimatePromptSize(batch); est > maxPromptChars {
		o.logger.Warn("batch prompt estimate exceeds limit, scoring heuristically",
			zap.Int("batch_size", len(batch)),
			zap.Int("estimated_chars", est),
			zap.Int("limit", maxPromptChars))
		return o.heuristicBatch(batch)
	}

	prompt := buildScoringPrompt(batch)

	outcome := retry.Do(ctx, o.logger, "score-batch", o.policy, func(ctx context.Context) (string, error) {
		text, tier, err := o.router.Complete(ctx, scoreSystemPrompt, prompt)
		if err != nil {
			return "", err
		}
		o.logger.Debug("scoring call completed",
			zap.Int("batch_size", len(batch)),
			zap.String("tier", tier))
		return text, nil
	})
	if !outcome.OK() {
		o.logger.Warn("scoring call failed, scoring batch heuristically",
			zap.Int("batch_size", len(batch)),
			zap.Int("attempts", outcome.Attempts),
			zap.Error(outcome.Err))
		return o.heuristicBatch(batch)
	}

	byID, err := parseBatchScores(outcome.Value, batch)
	if err != nil {
		byID, err = o.repairBatchScores(ctx, outcome.Value, err, batch)
		if err != nil {
			o.logger.Warn("scoring response unrecoverable, scoring batch heuristically",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			return o.heuristicBatch(batch)
		}
	}

	out := make([]types.ScoredItem, len(batch))
	for i, item := range batch {
		raw := byID[item.ID]
		out[i] = types.ScoredItem{
			VerifiedItem: item,
			Scores:       modelScores(raw, item.Verification.Level),
			Reasoning:    raw.Reasoning,
		}
	}
	return out
}

func (o *Orchestrator) repairBatchScores(ctx context.Context, badOutput string, parseErr error, batch []types.VerifiedItem) (map[string]itemScore, error) {
	fixed, _, err := repair.Fix(ctx, o.logger, o.router, batchScoreSchemaHint, badOutput, parseErr)
	if err != nil {
		return nil, err
	}
	return parseBatchScores(fixed, batch)
}

func (o *Orchestrator) heuristicBatch(batch []types.VerifiedItem) []types.ScoredItem {
	now := o.now()
	out := make([]types.ScoredItem, len(batch))
	for i, item := range batch {
		out[i] = types.ScoredItem{
			VerifiedItem: item,
			Scores:       heuristicScore(item, now),
			Reasoning:    heuristicReasoning,
		}
	}
	return out
}

// finalize sorts the full result set by overall score descending, truncates
// to the configured top-N, and assigns ranks over the retained set. Per
// batch ranks are meaningless since batch score ranges overlap.
func (o *Orchestrator) finalize(scored []types.ScoredItem) []types.ScoredItem {
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Scores.Overall > scored[b].Scores.Overall
	})
	if o.cfg.TopN > 0 && len(scored) > o.cfg.TopN {
		scored = scored[:o.cfg.TopN]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

// itemScore is one entry of the model's batch response, decoded at the
// system boundary.
type itemScore struct {
	ID                  string  `json:"id"`
	Relevance           float64 `json:"relevance"`
	Authenticity        float64 `json:"authenticity"`
	Recency             float64 `json:"recency"`
	EngagementPotential float64 `json:"engagementPotential"`
	Reasoning           string  `json:"reasoning"`
}

// parseBatchScores decodes a batch response and checks it covers every
// input item. A missing ID makes the whole batch a parse failure; silently
// defaulting missing items would corrupt rankings.
func parseBatchScores(response string, batch []types.VerifiedItem) (map[string]itemScore, error) {
	jsonStr := repair.ExtractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in scoring response")
	}
	var entries []itemScore
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}

	byID := make(map[string]itemScore, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for _, item := range batch {
		if _, ok := byID[item.ID]; !ok {
			return nil, fmt.Errorf("scoring response missing item %s", item.ID)
		}
	}
	return byID, nil
}

// modelScores clamps the model's raw dimensions, applies the verification
// boost to authenticity, and derives the overall score.
func modelScores(raw itemScore, level types.VerificationLevel) types.Scores {
	s := types.Scores{
		Relevance:           types.Clamp(raw.Relevance),
		Authenticity:        types.Clamp(types.Clamp(raw.Authenticity) + types.AuthenticityBoost(level)),
		Recency:             types.Clamp(raw.Recency),
		EngagementPotential: types.Clamp(raw.EngagementPotential),
	}
	s.Overall = types.Clamp(weightRelevance*s.Relevance +
		weightAuthenticity*s.Authenticity +
		weightRecency*s.Recency +
		weightEngagement*s.EngagementPotential)
	return s
}
