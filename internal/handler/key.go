package handler

import (
	"log"
	"sync"

	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// KeyHandler maps straight through to a single output key: whatever
// value it is notified with (0 or 1) is written to (OutType, OutCode)
// on Target. Grounded on mapping_handler.py's KeyHandler.notify, which
// does nothing more than `global_uinputs.write(event_tuple, target)`.
type KeyHandler struct {
	Target     Writer
	OutType    uint16
	OutCode    uint16
	TargetName string // sink name, for HandlerTriggers metric labeling

	mu     sync.Mutex
	active bool
}

// NewKeyHandler builds a KeyHandler writing to (outType, outCode) on
// target, labeling its HandlerTriggers metric with targetName.
func NewKeyHandler(target Writer, outType, outCode uint16, targetName string) *KeyHandler {
	return &KeyHandler{Target: target, OutType: outType, OutCode: outCode, TargetName: targetName}
}

func (k *KeyHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	if !suppressed {
		if err := writeAndSyn(k.Target, k.OutType, k.OutCode, ev.Value); err != nil {
			return false, err
		}
	}
	k.mu.Lock()
	k.active = ev.Value == 1
	k.mu.Unlock()
	if !suppressed && ev.Value == 1 {
		metrics.HandlerTriggers.WithLabelValues(k.TargetName, "key").Inc()
	}
	return !suppressed, nil
}

// Active reports whether this handler's last write was a press,
// mirroring mapping_handler.py's KeyHandler.active (used for logging
// and by HierarchyHandler-adjacent bookkeeping).
func (k *KeyHandler) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

// Reset writes a release if the handler is currently holding its
// output key down, mirroring mapping_handler.py's notify being fed a
// synthetic release on context reset rather than leaving a key stuck.
func (k *KeyHandler) Reset() {
	k.mu.Lock()
	wasActive := k.active
	k.active = false
	k.mu.Unlock()

	if !wasActive {
		return
	}
	if err := writeAndSyn(k.Target, k.OutType, k.OutCode, 0); err != nil {
		log.Printf("key handler reset: releasing %s: %v", k.TargetName, err)
	}
}
