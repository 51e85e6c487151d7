package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted every attempt of a Retry call failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy bounds how a failed call is retried.
type RetryPolicy struct {
	Attempts   int           // 总尝试次数（含首次），小于 1 按 1 处理
	Backoff    time.Duration // 第二次尝试前的等待，之后逐次翻倍
	MaxBackoff time.Duration // 0 表示不封顶
	// Retryable reports whether err is worth another attempt. Nil retries
	// any error. Context errors are never retried.
	Retryable func(err error) bool
}

// Retry calls fn until it succeeds or the policy gives up. A non-retryable
// error is returned as is; when all attempts fail the last error is
// wrapped with ErrRetriesExhausted.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	wait := p.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := sleep(ctx, wait); werr != nil {
				return errors.Join(werr, err)
			}
			wait = p.next(wait)
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if !p.retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}

func (p RetryPolicy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return p.Retryable == nil || p.Retryable(err)
}

func (p RetryPolicy) next(wait time.Duration) time.Duration {
	wait *= 2
	if p.MaxBackoff > 0 && wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
