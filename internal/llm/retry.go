package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SendWithRetry pushes one message through conv, waiting a fixed delay between
// failed attempts. At most attempts calls are made; the final error is
// returned once the budget is exhausted, never swallowed. The delay is
// deliberately constant rather than exponential — a known limitation kept for
// predictable interactive latency.
func SendWithRetry(ctx context.Context, conv Conversation, text string, attempts int, delay time.Duration) (Response, error) {
	if attempts < 1 {
		attempts = 1
	}
	var resp Response
	op := func() error {
		var err error
		resp, err = conv.Send(ctx, text)
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return Response{}, fmt.Errorf("model call failed after %d attempt(s): %w", attempts, err)
	}
	return resp, nil
}
