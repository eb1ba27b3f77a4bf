package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeClient is a scripted Client for router tests.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestNewRouterRequiresOneUsableTier(t *testing.T) {
	_, err := NewRouter(nil)
	if !errors.Is(err, ErrNoTiers) {
		t.Fatalf("empty router error = %v, want ErrNoTiers", err)
	}

	_, err = NewRouter(nil, Tier{
		Name:      "dead",
		Client:    &fakeClient{},
		Available: func() bool { return false },
	})
	if !errors.Is(err, ErrNoTiers) {
		t.Fatalf("all-unavailable router error = %v, want ErrNoTiers", err)
	}
}

func TestRouterFirstTierWins(t *testing.T) {
	first := &fakeClient{response: "from first"}
	second := &fakeClient{response: "from second"}
	r, err := NewRouter(nil,
		Tier{Name: "one", Client: first},
		Tier{Name: "two", Client: second},
	)
	if err != nil {
		t.Fatal(err)
	}

	text, tier, err := r.Complete(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "from first" || tier != "one" {
		t.Errorf("got (%q, %q), want (from first, one)", text, tier)
	}
	if second.calls != 0 {
		t.Errorf("second tier was called %d times after first succeeded", second.calls)
	}
}

func TestRouterFallsBackInOrder(t *testing.T) {
	first := &fakeClient{err: errors.New("first down")}
	second := &fakeClient{err: errors.New("second down")}
	third := &fakeClient{response: "from third"}
	r, err := NewRouter(nil,
		Tier{Name: "one", Client: first},
		Tier{Name: "two", Client: second},
		Tier{Name: "three", Client: third},
	)
	if err != nil {
		t.Fatal(err)
	}

	text, tier, err := r.Complete(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "from third" || tier != "three" {
		t.Errorf("got (%q, %q), want (from third, three)", text, tier)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("earlier tiers calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestRouterSkipsUnavailableTiers(t *testing.T) {
	skipped := &fakeClient{response: "never"}
	used := &fakeClient{response: "used"}
	r, err := NewRouter(nil,
		Tier{Name: "skipped", Client: skipped, Available: func() bool { return false }},
		Tier{Name: "used", Client: used},
	)
	if err != nil {
		t.Fatal(err)
	}

	_, tier, err := r.Complete(context.Background(), "", "x")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if tier != "used" {
		t.Errorf("tier = %q, want used", tier)
	}
	if skipped.calls != 0 {
		t.Error("unavailable tier was invoked")
	}
}

func TestRouterAllTiersFail(t *testing.T) {
	e1 := errors.New("boom one")
	e2 := errors.New("boom two")
	r, err := NewRouter(nil,
		Tier{Name: "one", Client: &fakeClient{err: e1}},
		Tier{Name: "two", Client: &fakeClient{err: e2}},
	)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = r.Complete(context.Background(), "", "x")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "all 2 provider tiers failed") {
		t.Errorf("error message missing attempted-tier count: %v", err)
	}
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("error must wrap every tier failure in order: %v", err)
	}
}

func TestRouterStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	second := &fakeClient{response: "late"}
	r, err := NewRouter(nil,
		Tier{Name: "one", Client: &fakeClient{err: context.Canceled}},
		Tier{Name: "two", Client: second},
	)
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	_, _, err = r.Complete(ctx, "", "x")
	if err == nil {
		t.Fatal("expected failure")
	}
	if second.calls != 0 {
		t.Error("router tried a later tier after caller cancellation")
	}
}

func TestRouterTierNames(t *testing.T) {
	r, err := NewRouter(nil,
		Tier{Name: "a", Client: &fakeClient{}},
		Tier{Name: "b", Client: &fakeClient{}},
	)
	if err != nil {
		t.Fatal(err)
	}
	names := r.TierNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("TierNames = %v, want [a b]", names)
	}
}
