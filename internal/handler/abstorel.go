package handler

import (
	"context"
	"sync"

	"github.com/victortrac/inputcore/internal/axis"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// AbsToRelHandler drives an axis.AbsToRel transducer: feeding it raw
// EV_ABS samples, starting its rate loop the moment the axis leaves
// the deadzone, and stopping it the moment it returns. Grounded on
// mapping_handler.py's AbsToRelHandler, whose notify() calls
// _calc_qubic/_normalize per event and (re)starts self._run as an
// asyncio task exactly on the deadzone-exit edge.
type AbsToRelHandler struct {
	Transducer *axis.AbsToRel
	Target     Writer
	OutCode    uint16
	AbsMin     int32
	AbsMax     int32
	TargetName string // sink name, for RateLoopTicks metric labeling

	mu         sync.Mutex
	cancel     context.CancelFunc
	suppressed bool
}

func NewAbsToRelHandler(transducer *axis.AbsToRel, target Writer, outCode uint16, absMin, absMax int32, targetName string) *AbsToRelHandler {
	return &AbsToRelHandler{Transducer: transducer, Target: target, OutCode: outCode, AbsMin: absMin, AbsMax: absMax, TargetName: targetName}
}

func (a *AbsToRelHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	shouldStart, inDeadzone, err := a.Transducer.Feed(ev.Value, a.AbsMin, a.AbsMax)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	a.suppressed = suppressed
	a.mu.Unlock()

	if inDeadzone {
		a.Transducer.Stop()
		a.stopLoop()
		return true, nil
	}

	if shouldStart {
		a.startLoop()
	}
	if suppressed {
		return false, nil
	}
	return true, nil
}

func (a *AbsToRelHandler) startLoop() {
	runCtx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	go func() {
		_ = a.Transducer.Run(runCtx, func(delta int32) {
			if delta == 0 {
				return
			}
			a.mu.Lock()
			suppressed := a.suppressed
			a.mu.Unlock()
			if suppressed {
				return
			}
			metrics.RateLoopTicks.WithLabelValues(a.TargetName).Inc()
			_ = writeAndSyn(a.Target, model.EvRel, a.OutCode, delta)
		})
	}()
}

func (a *AbsToRelHandler) stopLoop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *AbsToRelHandler) Reset() {
	a.Transducer.Stop()
	a.stopLoop()
}
