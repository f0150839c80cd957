package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job handles every message of one type. The payload is the JSON the
// producer enqueued; decode it with ParsePayload.
// Return Permanent(err) for failures a retry cannot fix.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// RetryScheduler is implemented by jobs that know better than exponential
// backoff when a failure is worth another try, e.g. a resource held by
// another worker. ok=false falls back to Config.Backoff.
type RetryScheduler interface {
	RetryAfter(err error, attempt int) (delay time.Duration, ok bool)
}

// retryDelay picks the delay before retry number attempt (1-based).
func retryDelay(cfg Config, job Job, err error, attempt int) time.Duration {
	if rs, ok := job.(RetryScheduler); ok {
		if d, ok := rs.RetryAfter(err, attempt); ok && d > 0 {
			return d
		}
	}
	return cfg.Backoff(attempt)
}
