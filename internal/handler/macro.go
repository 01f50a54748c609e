package handler

import (
	"context"
	"log"
	"sync"

	"github.com/victortrac/inputcore/internal/macro"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// MacroHandler runs a compiled macro tree on trigger press and signals
// its release on trigger release, writing every event the macro
// produces to Target. Grounded on mapping_handler.py's MacroHandler:
// press starts the macro (unless it is already running, mirroring the
// `if self._macro.running: return True` guard), release calls
// release_trigger only if the macro is currently holding.
type MacroHandler struct {
	Target     Writer
	Tree       *macro.Macro
	TargetName string // sink name, for HandlerTriggers/MacrosRunning metric labeling

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

// NewMacroHandler builds a MacroHandler running tree, writing every
// event it emits to target.
func NewMacroHandler(target Writer, tree *macro.Macro, targetName string) *MacroHandler {
	return &MacroHandler{Target: target, Tree: tree, TargetName: targetName}
}

func (m *MacroHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	if ev.Value == 1 {
		m.mu.Lock()
		m.active = true
		m.mu.Unlock()

		m.Tree.PressTrigger()
		if suppressed {
			return false, nil
		}
		if m.Tree.Running() {
			return true, nil
		}

		runCtx, cancel := context.WithCancel(context.Background())
		m.mu.Lock()
		m.cancel = cancel
		m.mu.Unlock()

		metrics.HandlerTriggers.WithLabelValues(m.TargetName, "macro").Inc()
		metrics.MacrosRunning.Inc()
		go func() {
			defer metrics.MacrosRunning.Dec()
			if err := m.Tree.Run(runCtx, func(evType, code uint16, value int32) {
				if err := writeAndSyn(m.Target, evType, code, value); err != nil {
					log.Printf("macro handler write failed: %v", err)
				}
			}); err != nil {
				log.Printf("macro run failed: %v", err)
			}
		}()
		return true, nil
	}

	m.mu.Lock()
	m.active = false
	m.mu.Unlock()

	if m.Tree.IsHolding() {
		m.Tree.ReleaseTrigger()
	}
	if suppressed {
		return false, nil
	}
	return true, nil
}

func (m *MacroHandler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Reset cancels any in-flight run and releases the trigger, so a
// held-down macro doesn't keep running across a device re-grab.
func (m *MacroHandler) Reset() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.active = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if m.Tree.IsHolding() {
		m.Tree.ReleaseTrigger()
	}
}
