package interact

import (
	"context"
	"math/rand"
	"time"
)

const (
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// backoff yields exponentially growing delays with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: initialBackoff}
}

// next returns the next delay: the current step plus up to half of it as
// jitter. The step doubles until it reaches maxBackoff.
func (b *backoff) next() time.Duration {
	d := b.current + time.Duration(rand.Int63n(int64(b.current/2)+1))
	if b.current < maxBackoff {
		b.current = min(b.current*2, maxBackoff)
	}
	return d
}

// wait sleeps for the next delay. It returns ctx.Err() if ctx ends first.
func (b *backoff) wait(ctx context.Context) error {
	t := time.NewTimer(b.next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
