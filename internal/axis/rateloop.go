package axis

import (
	"context"
	"time"
)

// RunPaced runs tick repeatedly at hz, correcting for the time tick
// itself took so the loop doesn't drift slower than the configured
// rate — the same pattern as mapping_handler.py's AbsToRelHandler._run
// (measure elapsed time, sleep only the remainder of the period).
// tick returns false to stop the loop; RunPaced returns when tick
// returns false or ctx is canceled.
func RunPaced(ctx context.Context, hz float64, tick func() bool) error {
	period := Period(hz)
	for {
		start := time.Now()

		if !tick() {
			return nil
		}

		elapsed := time.Since(start)
		remaining := period - elapsed
		if remaining < 0 {
			remaining = 0
		}

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Period converts a tick rate in Hz to its corresponding duration,
// defaulting to 60Hz (spec §3's default rel_rate) for hz <= 0.
func Period(hz float64) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	return time.Duration(float64(time.Second) / hz)
}
