package dataset

import (
	"context"
	"time"
)

// ReplayEvent is one step of a replay: either a number of run Run, or the
// end of that run.
type ReplayEvent struct {
	Run      int
	Number   float64
	EndOfRun bool
}

// Replay hands every number of every run to fn in order, sleeping delay
// after each number, and follows each run with an EndOfRun event. It stops
// at the first error from fn or when ctx is done.
func Replay(ctx context.Context, runs [][]float64, delay time.Duration, fn func(ReplayEvent) error) error {
	for i, run := range runs {
		for _, x := range run {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ReplayEvent{Run: i + 1, Number: x}); err != nil {
				return err
			}
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
		if err := fn(ReplayEvent{Run: i + 1, EndOfRun: true}); err != nil {
			return err
		}
	}
	return nil
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
