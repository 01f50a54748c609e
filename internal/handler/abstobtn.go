package handler

import (
	"sync"

	"github.com/victortrac/inputcore/internal/axis"
	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/model"
)

// AbsToBtnHandler turns a continuous EV_ABS axis into a momentary
// button by comparing it against a signed trigger point, dispatching
// only on the press/release transition. Grounded on
// mapping_handler.py's AbsToBtnHandler, including its dead-simple
// `_trigger_point` computation (now axis.AbsToBtn.Evaluate, which takes
// the normalized threshold directly instead of recomputing a raw
// trigger value from absinfo every event).
type AbsToBtnHandler struct {
	Transducer axis.AbsToBtn
	AbsMin     int32
	AbsMax     int32
	Sub        icontext.Handler

	mu     sync.Mutex
	active bool
}

func NewAbsToBtnHandler(threshold float64, absMin, absMax int32, sub icontext.Handler) *AbsToBtnHandler {
	return &AbsToBtnHandler{
		Transducer: axis.AbsToBtn{Threshold: threshold},
		AbsMin:     absMin,
		AbsMax:     absMax,
		Sub:        sub,
	}
}

func (a *AbsToBtnHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	pressed := a.Transducer.Evaluate(ev.Value, a.AbsMin, a.AbsMax)

	a.mu.Lock()
	if pressed == a.active {
		a.mu.Unlock()
		return true, nil
	}
	a.active = pressed
	a.mu.Unlock()

	if suppressed {
		return false, nil
	}

	value := int32(0)
	if pressed {
		value = 1
	}
	return a.Sub.Notify(model.InputEvent{Type: model.EvKey, Value: value, Origin: ev.Origin}, false)
}

func (a *AbsToBtnHandler) Reset() {
	a.mu.Lock()
	a.active = false
	a.mu.Unlock()
	a.Sub.Reset()
}
