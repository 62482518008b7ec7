package lifecycle

import (
	"context"
	"time"
)

// Clock abstracts the wait between poll attempts so tests can drive
// the loop without real time passing.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// NewClock returns a Clock backed by a real timer. Sleep returns the
// context error when the context is cancelled before the timer fires.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
