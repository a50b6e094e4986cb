package chain

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/metrics"
)

// do runs fn behind the concurrency gate and the rate limiter, repeating
// transient failures. Reverts and other deterministic errors return at once.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.Attempts),
		retry.DelayType(c.backoff),
		retry.LastErrorOnly(true),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			class := Classify(err)
			metrics.RPCRetries.WithLabelValues(class).Inc()
			c.log.Debug("rpc retry", zap.String("op", op), zap.Uint("attempt", n+1), zap.String("class", class), zap.Error(err))
		}),
	)
}

// once runs fn a single time behind the gate and the limiter. Writes go
// through here so a lost response never rebroadcasts.
func (c *Client) once(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() { <-c.gate }

// backoff keeps the base delay flat and doubles it per attempt while the
// provider is rate limiting.
func (c *Client) backoff(n uint, err error, _ *retry.Config) time.Duration {
	d := c.opts.Backoff
	if Classify(err) == ClassRateLimited {
		d <<= n
	}
	return d
}
