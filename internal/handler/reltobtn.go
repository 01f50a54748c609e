package handler

import (
	"context"
	"sync"
	"time"

	"github.com/victortrac/inputcore/internal/axis"
	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/model"
)

// RelToBtnHandler turns discrete EV_REL deltas (e.g. wheel ticks) into
// a momentary button: a qualifying delta presses it immediately and
// schedules a release after ReleaseTimeout of inactivity, since a rel
// axis never reports its own "back to zero". Grounded on
// mapping_handler.py's RelToBtnHandler.stage_release, which polls
// time.time() against _last_activation at a 60Hz cadence; same poll
// cadence, replacing asyncio.sleep with a ticker bound to ctx so Reset
// can cancel it.
type RelToBtnHandler struct {
	Transducer     axis.RelToBtn
	ReleaseTimeout time.Duration
	Sub            icontext.Handler

	mu             sync.Mutex
	active         bool
	lastActivation time.Time
	cancelRelease  context.CancelFunc
}

func NewRelToBtnHandler(threshold int32, releaseTimeout time.Duration, sub icontext.Handler) *RelToBtnHandler {
	return &RelToBtnHandler{
		Transducer:     axis.RelToBtn{Threshold: threshold},
		ReleaseTimeout: releaseTimeout,
		Sub:            sub,
	}
}

func (r *RelToBtnHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	if !r.Transducer.Evaluate(ev.Value) {
		return true, nil
	}

	r.mu.Lock()
	r.lastActivation = time.Now()
	if r.active {
		r.mu.Unlock()
		return true, nil
	}
	r.active = true
	releaseCtx, cancel := context.WithCancel(context.Background())
	r.cancelRelease = cancel
	r.mu.Unlock()

	go r.stageRelease(releaseCtx, ev.Origin, suppressed)

	if suppressed {
		return false, nil
	}
	return r.Sub.Notify(model.InputEvent{Type: model.EvKey, Value: 1, Origin: ev.Origin}, false)
}

func (r *RelToBtnHandler) stageRelease(ctx context.Context, origin model.DeviceID, suppressed bool) {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			due := time.Since(r.lastActivation) >= r.ReleaseTimeout
			r.mu.Unlock()
			if !due {
				continue
			}

			r.mu.Lock()
			r.active = false
			r.cancelRelease = nil
			r.mu.Unlock()

			if !suppressed {
				_, _ = r.Sub.Notify(model.InputEvent{Type: model.EvKey, Value: 0, Origin: origin}, false)
			}
			return
		}
	}
}

func (r *RelToBtnHandler) Reset() {
	r.mu.Lock()
	cancel := r.cancelRelease
	r.cancelRelease = nil
	r.active = false
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.Sub.Reset()
}
