// Package macro implements the macro DSL of spec §4.5: a small parser
// that turns strings like "r(3, k(a).w(10))" into a tree of Macro
// values, and a runtime that executes the compiled tree against a
// Handler.
//
// Grounded throughout on inputremapper's injection/macros/macro.py and
// injection/macros/parse.py (see original_source/). asyncio.Event
// becomes the gate type; asyncio coroutines become closures of type
// task running under a context.Context; the module-level
// SharedDict-backed `macro_variables` becomes the Runtime.Store
// interface backed by internal/variablestore.
package macro

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Variable represents a `$name` reference parsed from macro source.
// Its value is not known until Runtime.Store.Get is consulted at task
// execution time (macro.py's Variable.resolve).
type Variable struct {
	Name string
}

func (v *Variable) String() string { return "$" + v.Name }

// resolve reads the variable's current value from the runtime store.
func (v *Variable) resolve(rt *Runtime) any {
	return rt.Store.Get(v.Name)
}

// resolveArg resolves v if it is a *Variable, otherwise returns it
// unchanged. Mirrors macro.py's module-level _resolve().
func resolveArg(rt *Runtime, v any) any {
	if variable, ok := v.(*Variable); ok {
		return variable.resolve(rt)
	}
	return v
}

type task func(ctx context.Context, h Handler) error

// Macro is a compiled node in the macro tree: a sequence of tasks run
// in order, plus a set of child macros it may recurse into (hold,
// repeat, modify, if_eq, if_tap, if_single all nest a child Macro).
type Macro struct {
	Code string
	rt   *Runtime

	tasks       []task
	childMacros []*Macro

	triggerRelease *gate // set (released) by default
	triggerPress   *gate // clear by default

	runMu   sync.Mutex
	running bool
}

// newMacro constructs an empty macro sharing rt with its parent tree.
func newMacro(code string, rt *Runtime) *Macro {
	return &Macro{
		Code:           code,
		rt:             rt,
		triggerRelease: newGate(true),
		triggerPress:   newGate(false),
	}
}

// IsHolding reports whether the trigger is currently held down.
func (m *Macro) IsHolding() bool {
	return !m.triggerRelease.IsSet()
}

// PressTrigger notifies the macro tree that the combination's trigger
// key went down; hold/if_tap/if_single/mouse/wheel tasks key off this.
func (m *Macro) PressTrigger() {
	if m.IsHolding() {
		log.Printf("macro trigger already held: %s", m.Code)
		return
	}
	m.triggerRelease.Clear()
	m.triggerPress.Set()
	for _, child := range m.childMacros {
		child.PressTrigger()
	}
}

// ReleaseTrigger notifies the macro tree that the trigger key went up.
func (m *Macro) ReleaseTrigger() {
	m.triggerRelease.Set()
	m.triggerPress.Clear()
	for _, child := range m.childMacros {
		child.ReleaseTrigger()
	}
}

// Running reports whether this macro's Run is currently executing,
// mirroring macro.py's Macro.running attribute (read by MacroHandler
// to avoid starting a second concurrent run on a rapid re-press).
func (m *Macro) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// Run executes every top-level task in order, stopping (and logging)
// at the first error, mirroring macro.py's Macro.run swallowing task
// exceptions so one bad task doesn't wedge the whole injector.
func (m *Macro) Run(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("macro: nil handler")
	}

	m.runMu.Lock()
	if m.running {
		m.runMu.Unlock()
		log.Printf("macro already running: %s", m.Code)
		return nil
	}
	m.running = true
	m.runMu.Unlock()

	defer func() {
		m.runMu.Lock()
		m.running = false
		m.runMu.Unlock()
	}()

	for _, t := range m.tasks {
		if err := t(ctx, h); err != nil {
			log.Printf("macro task failed: code=%s error=%v", m.Code, err)
			break
		}
	}
	return nil
}

// keystrokePause sleeps for the runtime's configured inter-keystroke
// delay, grounded on macro.py's _keycode_pause (observed necessary to
// avoid drops when keys are injected back-to-back).
func (m *Macro) keystrokePause(ctx context.Context) error {
	return sleep(ctx, m.rt.KeystrokeSleep)
}
