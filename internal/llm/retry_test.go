package llm

import (
	"context"
	"errors"
	"testing"
)

type flakyConversation struct {
	failures int
	calls    int
}

func (f *flakyConversation) Send(_ context.Context, text string) (Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return Response{}, errors.New("transient failure")
	}
	return Response{Content: "echo: " + text}, nil
}

func TestSendWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	conv := &flakyConversation{failures: 2}
	resp, err := SendWithRetry(context.Background(), conv, "hello", 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "echo: hello" {
		t.Fatalf("unexpected response: %q", resp.Content)
	}
	if conv.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", conv.calls)
	}
}

func TestSendWithRetryStopsAtBudget(t *testing.T) {
	conv := &flakyConversation{failures: 100}
	_, err := SendWithRetry(context.Background(), conv, "hello", 3, 0)
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if conv.calls != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", conv.calls)
	}
}

func TestSendWithRetrySingleAttemptOnSuccess(t *testing.T) {
	conv := &flakyConversation{}
	if _, err := SendWithRetry(context.Background(), conv, "hi", 3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.calls != 1 {
		t.Fatalf("success must not be retried, got %d attempts", conv.calls)
	}
}

func TestSendWithRetryNormalizesAttempts(t *testing.T) {
	conv := &flakyConversation{failures: 100}
	_, err := SendWithRetry(context.Background(), conv, "hi", 0, 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if conv.calls != 1 {
		t.Fatalf("want 1 attempt for zero budget, got %d", conv.calls)
	}
}
