package tts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func mustChain(t *testing.T, providers ...Provider) *Chain {
	t.Helper()
	chain, err := NewChain(providers...)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}
	return chain
}

func TestChainFirstProviderWins(t *testing.T) {
	primary := NewMock()
	secondary := NewMock()
	chain := mustChain(t, primary, secondary)

	result, err := chain.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(result.Audio) == 0 {
		t.Error("expected audio bytes from primary")
	}
	if got := primary.CallCount("Synthesize"); got != 1 {
		t.Errorf("primary Synthesize calls = %d, want 1", got)
	}
	if got := secondary.CallCount("Synthesize"); got != 0 {
		t.Errorf("secondary Synthesize calls = %d, want 0", got)
	}
}

func TestChainFallsBackOnFailure(t *testing.T) {
	primary := NewMockWithError(errors.New("rate limited"))
	secondary := NewMock()
	chain := mustChain(t, primary, secondary)

	result, err := chain.Synthesize(context.Background(), "fallback please")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result == nil || len(result.Audio) == 0 {
		t.Fatal("expected audio from secondary provider")
	}
	if got := secondary.CallCount("Synthesize"); got != 1 {
		t.Errorf("secondary Synthesize calls = %d, want 1", got)
	}
}

func TestChainAllProvidersFail(t *testing.T) {
	p1 := NewMockWithError(errors.New("down"))
	p2 := NewMockWithError(errors.New("also down"))
	chain := mustChain(t, p1, p2)

	_, err := chain.Synthesize(context.Background(), "doomed")
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("error type = %T, want *ChainError", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("ChainError.Errors len = %d, want 2", len(chainErr.Errors))
	}
}

func TestChainTierTimeout(t *testing.T) {
	slow := &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &AudioResult{Audio: []byte("too late")}, nil
			}
		},
	}
	fast := NewMock()
	chain := mustChain(t, slow, fast)
	chain.SetTierTimeout(50 * time.Millisecond)

	start := time.Now()
	result, err := chain.Synthesize(context.Background(), "hurry")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("chain took %v, slow tier was not cut off", elapsed)
	}
	if len(result.Audio) == 0 {
		t.Error("expected audio from the fast tier")
	}
}

func TestChainParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewMockWithError(errors.New("unreachable"))
	chain := mustChain(t, p)

	_, err := chain.Synthesize(ctx, "cancelled")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestChainHealth(t *testing.T) {
	t.Run("one healthy provider is enough", func(t *testing.T) {
		chain := mustChain(t, NewMockWithError(errors.New("down")), NewMock())
		if err := chain.Health(context.Background()); err != nil {
			t.Errorf("Health() error = %v, want nil", err)
		}
	})

	t.Run("all unhealthy", func(t *testing.T) {
		chain := mustChain(t, NewMockWithError(errors.New("down")))
		if err := chain.Health(context.Background()); err == nil {
			t.Error("Health() = nil, want error")
		}
	})
}
