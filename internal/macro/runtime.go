package macro

import (
	"time"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/model"
)

// VarStore is the subset of variablestore.Store that macros need: get
// and set by name. Kept as an interface so tests can substitute an
// in-memory fake instead of standing up sqlite.
type VarStore interface {
	Get(name string) any
	Set(name string, value any)
}

// ListenerFunc observes a raw event flowing through a device's event
// reader, independent of what the handler graph consumes. Returning
// true suppresses the event from forwarding/further dispatch (used by
// mod_tap to buffer keys pressed while it's deciding tap-vs-hold);
// returning false leaves it alone (used by if_single, which only
// observes).
type ListenerFunc func(model.InputEvent) bool

// Listeners lets macro tasks register a ListenerFunc with the owning
// Context (spec §4.7 "single-key disambiguation", "mod_tap"). Implemented
// by internal/context.Context.
type Listeners interface {
	AddListener(fn ListenerFunc) int
	RemoveListener(id int)
}

// Handler is how a running macro task emits an event; the compiled
// handler graph supplies one bound to a specific output sink (spec
// §4.5 "macro tasks write through the same Handler the handler graph
// uses").
type Handler func(evType, code uint16, value int32)

// Runtime is the state shared by every Macro in one compiled tree: the
// root and every task/if/repeat/hold child macro parsed from the same
// mapping. It plays the role of macro.py's module-level
// `macro_variables` SharedDict plus the per-mapping rate/sleep knobs
// that macro.py reads off `self.mapping`.
type Runtime struct {
	Store          VarStore
	Listeners      Listeners
	Layout         *keyboardlayout.Layout
	KeystrokeSleep time.Duration // spec default 20ms, from Mapping.macro_key_sleep_ms
	RateHz         float64       // spec default 60Hz, from Mapping.rate

	// LedQuery reports which LED codes are currently lit on the source
	// device, backing if_led (spec §4.7). nil if the macro tree has no
	// such task; wired to evdevio.SourceDevice.Leds by the compiler.
	LedQuery func() ([]uint16, error)

	// Replay re-injects a previously buffered event through the forward
	// sink registered for its Origin device, backing mod_tap's replay
	// of keys recorded while it was still deciding tap-vs-hold.
	Replay func(model.InputEvent) error
}
