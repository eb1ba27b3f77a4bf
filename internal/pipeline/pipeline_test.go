package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"trendsift/internal/config"
	"trendsift/internal/provider"
	"trendsift/internal/types"
)

func TestMain(m *testing.M) {
	// The genai dependency pulls in opencensus, whose package init starts a
	// background worker goroutine that cannot be stopped by the tests.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// offlineConfig disables every provider tier and skips both model stages,
// so a run touches no network and no subprocess.
func offlineConfig() config.Config {
	cfg := config.Default()
	cfg.Providers.ClaudeCLI.Enabled = false
	cfg.Verification.Skip = true
	cfg.Scoring.Skip = true
	return cfg
}

func makeItem(id string, shares int64) types.CollectedItem {
	now := time.Now()
	return types.CollectedItem{
		ID:            id,
		SchemaVersion: types.SchemaVersion,
		Source:        "x",
		SourceURL:     "https://x.com/u/status/" + id,
		Content:       "content of " + id,
		ContentHash:   types.HashContent("content of " + id),
		RetrievedAt:   now,
		Engagement:    types.Engagement{Shares: shares},
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := offlineConfig()
	cfg.TopN = 0

	_, err := Run(context.Background(), cfg, zap.NewNop(), []types.CollectedItem{makeItem("a", 1)})
	if err == nil {
		t.Fatal("Run accepted invalid config, want error")
	}
}

func TestRunEmptyInput(t *testing.T) {
	out, err := Run(context.Background(), offlineConfig(), zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

func TestRunNoTiersIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.ClaudeCLI.Enabled = false
	// No API keys either, and at least one stage needs the model.
	cfg.Verification.Skip = true
	cfg.Scoring.Skip = false

	_, err := Run(context.Background(), cfg, zap.NewNop(), []types.CollectedItem{makeItem("a", 1)})
	if !errors.Is(err, provider.ErrNoTiers) {
		t.Fatalf("err = %v, want ErrNoTiers", err)
	}
}

func TestRunOfflineEndToEnd(t *testing.T) {
	items := []types.CollectedItem{
		makeItem("quiet", 0),
		makeItem("loud", 5000),
		makeItem("middling", 50),
	}

	out, err := Run(context.Background(), offlineConfig(), zap.NewNop(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}

	for i, s := range out {
		if s.Rank != i+1 {
			t.Errorf("out[%d].Rank = %d, want %d", i, s.Rank, i+1)
		}
		if s.Verification.Level != types.LevelUnverified {
			t.Errorf("out[%d].Level = %v, want unverified", i, s.Verification.Level)
		}
		if s.Scores.Overall < 0 || s.Scores.Overall > 100 {
			t.Errorf("out[%d].Overall = %v out of range", i, s.Scores.Overall)
		}
	}
	if out[0].ID != "loud" {
		t.Errorf("rank 1 = %q, want loud (highest engagement)", out[0].ID)
	}
}

func TestRunRespectsTopN(t *testing.T) {
	cfg := offlineConfig()
	cfg.TopN = 2

	items := []types.CollectedItem{
		makeItem("a", 1), makeItem("b", 2), makeItem("c", 3), makeItem("d", 4),
	}
	out, err := Run(context.Background(), cfg, zap.NewNop(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len(out) = %d, want 2", len(out))
	}
}

func TestWarnComplianceOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	rc := NewRunContext()
	rc.WarnComplianceOnce(logger)
	rc.WarnComplianceOnce(logger)
	rc.WarnComplianceOnce(logger)

	if got := logs.Len(); got != 1 {
		t.Errorf("warning logged %d times, want once per run", got)
	}

	// A fresh run context warns again.
	NewRunContext().WarnComplianceOnce(logger)
	if got := logs.Len(); got != 2 {
		t.Errorf("second run: warnings = %d, want 2", got)
	}
}
