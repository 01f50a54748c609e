package handler

import (
	"context"
	"sync"

	"github.com/victortrac/inputcore/internal/axis"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// RelToAbsHandler accumulates EV_REL deltas into a decaying EV_ABS
// position, so e.g. mouse movement can drive a virtual joystick axis
// that recenters once the input stops. Supplements spec §4.6's
// transducer set (no mapping_handler.py analogue; see
// axis.RelToAbs's doc comment for how it was built). The rate loop
// runs continuously once started since the position only approaches,
// never reaches, zero — Reset is the only thing that stops it.
type RelToAbsHandler struct {
	Transducer *axis.RelToAbs
	Target     Writer
	OutCode    uint16
	TargetName string // sink name, for RateLoopTicks metric labeling

	mu         sync.Mutex
	cancel     context.CancelFunc
	suppressed bool
}

func NewRelToAbsHandler(transducer *axis.RelToAbs, target Writer, outCode uint16, targetName string) *RelToAbsHandler {
	return &RelToAbsHandler{Transducer: transducer, Target: target, OutCode: outCode, TargetName: targetName}
}

func (r *RelToAbsHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	shouldStart := r.Transducer.Feed(ev.Value)

	r.mu.Lock()
	r.suppressed = suppressed
	r.mu.Unlock()

	if shouldStart {
		r.startLoop()
	}
	if suppressed {
		return false, nil
	}
	return true, nil
}

func (r *RelToAbsHandler) startLoop() {
	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		_ = r.Transducer.Run(runCtx, func(value int32) {
			r.mu.Lock()
			suppressed := r.suppressed
			r.mu.Unlock()
			if suppressed {
				return
			}
			metrics.RateLoopTicks.WithLabelValues(r.TargetName).Inc()
			_ = writeAndSyn(r.Target, model.EvAbs, r.OutCode, value)
		})
	}()
}

func (r *RelToAbsHandler) Reset() {
	r.Transducer.Stop()
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
