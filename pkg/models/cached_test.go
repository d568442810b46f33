package models

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingAgent counts how many times Generate is actually invoked.
type countingAgent struct {
	calls int
	fail  bool
}

func (c *countingAgent) Generate(_ context.Context, prompt string) (string, error) {
	c.calls++
	if c.fail {
		return "", errors.New("boom")
	}
	return "generated: " + prompt, nil
}

func (c *countingAgent) ModelID() string { return "counting" }

func TestCachedLLMHitsCacheOnRepeat(t *testing.T) {
	inner := &countingAgent{}
	llm := NewCachedLLM(inner, 10, time.Hour, "")

	first, err := llm.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, err := llm.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if first != second {
		t.Fatalf("cached response differs: %q vs %q", first, second)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 underlying call, got %d", inner.calls)
	}
}

func TestCachedLLMDoesNotCacheErrors(t *testing.T) {
	inner := &countingAgent{fail: true}
	llm := NewCachedLLM(inner, 10, time.Hour, "")

	if _, err := llm.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error from failing agent")
	}

	inner.fail = false
	out, err := llm.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "generated: p" {
		t.Fatalf("unexpected response: %q", out)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 underlying calls, got %d", inner.calls)
	}
}

func TestCachedLLMReportsInnerModelID(t *testing.T) {
	llm := NewCachedLLM(&countingAgent{}, 10, time.Hour, "")
	if llm.ModelID() != "counting" {
		t.Fatalf("unexpected model id: %q", llm.ModelID())
	}
}
