package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted 所有尝试均失败
var ErrExhausted = errors.New("retry attempts exhausted")

// Outcome 有界重试的结果
// Err 为 nil 时 Value 有效；否则 Err 包装最后一次失败
type Outcome[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// Exhausted 是否用尽了全部尝试
func (o Outcome[T]) Exhausted() bool {
	return o.Err != nil
}

// Policy 重试策略
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do 以同一请求最多尝试 MaxAttempts 次，成功立即返回
// 尝试之间若 ctx 已取消则提前结束
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) Outcome[T] {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var out Outcome[T]
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out.Attempts = attempt
		v, err := fn(ctx, attempt)
		if err == nil {
			out.Value = v
			return out
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				out.Err = errors.Join(ErrExhausted, lastErr, ctx.Err())
				return out
			case <-timer.C:
			}
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil && out.Attempts < attempts {
		out.Err = errors.Join(ErrExhausted, lastErr, ctxErr)
		return out
	}
	out.Err = errors.Join(ErrExhausted, lastErr)
	return out
}
