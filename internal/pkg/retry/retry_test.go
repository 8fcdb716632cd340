package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	out := Do(context.Background(), Policy{MaxAttempts: 3}, func(ctx context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errBoom
		}
		return "ok", nil
	})

	assert.False(t, out.Exhausted())
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, calls)
}

func TestDoExhausted(t *testing.T) {
	calls := 0
	out := Do(context.Background(), Policy{MaxAttempts: 3}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errBoom
	})

	assert.True(t, out.Exhausted())
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(out.Err, ErrExhausted))
	assert.True(t, errors.Is(out.Err, errBoom))
}

func TestDoAtLeastOneAttempt(t *testing.T) {
	calls := 0
	out := Do(context.Background(), Policy{}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 7, nil
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7, out.Value)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	out := Do(ctx, Policy{MaxAttempts: 3, Backoff: time.Hour}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		cancel()
		return 0, errBoom
	})

	assert.Equal(t, 1, calls)
	assert.True(t, out.Exhausted())
	assert.True(t, errors.Is(out.Err, context.Canceled))
}
