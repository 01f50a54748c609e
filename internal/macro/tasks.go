package macro

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/victortrac/inputcore/internal/model"
)

// The add* methods below are the Go analogues of macro.py's
// Macro.add_key/add_hold/etc: called once at parse time to validate
// arguments and append a task closure; the closure itself resolves any
// $variables and does the actual work when Run is called.

// addKey appends a press+release of symbol (spec: "key").
func (m *Macro) addKey(symbol any) error {
	if err := requireSymbol(symbol); err != nil {
		return fmt.Errorf("key: %w", err)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		code, err := resolveSymbol(m.rt, symbol)
		if err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 1)
		if err := m.keystrokePause(ctx); err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 0)
		return m.keystrokePause(ctx)
	})
	return nil
}

// addHold appends either "wait for release" (no argument), "hold this
// key while the trigger is held" (a symbol), or "repeat this child
// macro while the trigger is held" (a Macro). Spec: "hold".
func (m *Macro) addHold(arg any) error {
	if arg == nil {
		m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
			return m.triggerRelease.Wait(ctx)
		})
		return nil
	}

	if child, ok := arg.(*Macro); ok {
		m.childMacros = append(m.childMacros, child)
		m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
			for m.IsHolding() {
				if err := child.Run(ctx, h); err != nil {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			return nil
		})
		return nil
	}

	if err := requireSymbol(arg); err != nil {
		return fmt.Errorf("hold: %w", err)
	}
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		code, err := resolveSymbol(m.rt, arg)
		if err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 1)
		defer h(model.EvKey, uint16(code), 0)
		return m.triggerRelease.Wait(ctx)
	})
	return nil
}

// addModify wraps child in a press/run/release of modifier (spec:
// "modify" — e.g. modify(Shift_L, k(a))).
func (m *Macro) addModify(modifier any, child *Macro) error {
	if err := requireSymbol(modifier); err != nil {
		return fmt.Errorf("modify: %w", err)
	}
	if child == nil {
		return fmt.Errorf("modify: second argument must be a macro")
	}
	m.childMacros = append(m.childMacros, child)

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		code, err := resolveSymbol(m.rt, modifier)
		if err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 1)
		if err := m.keystrokePause(ctx); err != nil {
			return err
		}
		if err := child.Run(ctx, h); err != nil {
			return err
		}
		if err := m.keystrokePause(ctx); err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 0)
		return m.keystrokePause(ctx)
	})
	return nil
}

// addHoldKeys holds down every symbol in order, then releases them in
// reverse order on trigger release (spec: "hold_keys"). The "a + b + c"
// shorthand does not build this task: handlePlusSyntax desugars it to
// nested modify calls around hold(), which has the same effect.
func (m *Macro) addHoldKeys(symbols []any) error {
	for _, s := range symbols {
		if err := requireSymbol(s); err != nil {
			return fmt.Errorf("hold_keys: %w", err)
		}
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		codes := make([]int, len(symbols))
		for i, s := range symbols {
			code, err := resolveSymbol(m.rt, s)
			if err != nil {
				return err
			}
			codes[i] = code
		}

		for _, code := range codes {
			h(model.EvKey, uint16(code), 1)
			if err := m.keystrokePause(ctx); err != nil {
				return err
			}
		}

		defer func() {
			for i := len(codes) - 1; i >= 0; i-- {
				h(model.EvKey, uint16(codes[i]), 0)
			}
		}()

		return m.triggerRelease.Wait(ctx)
	})
	return nil
}

// addRepeat runs child repeats times (spec: "repeat").
func (m *Macro) addRepeat(repeats any, child *Macro) error {
	if child == nil {
		return fmt.Errorf("repeat: second argument must be a macro")
	}
	m.childMacros = append(m.childMacros, child)

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		n, err := asInt(resolveArg(m.rt, repeats))
		if err != nil {
			return fmt.Errorf("repeat: %w", err)
		}
		for i := 0; i < n; i++ {
			if err := child.Run(ctx, h); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return nil
	})
	return nil
}

// addParallel runs every child macro concurrently and waits for all to
// finish, supplementing spec §4.7's "concurrent sub-macros" (spec:
// "parallel").
func (m *Macro) addParallel(children []*Macro) error {
	m.childMacros = append(m.childMacros, children...)

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		var wg sync.WaitGroup
		errs := make([]error, len(children))
		for i, child := range children {
			wg.Add(1)
			go func(i int, child *Macro) {
				defer wg.Done()
				errs[i] = child.Run(ctx, h)
			}(i, child)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// addEvent writes a single raw event, then pauses (spec: "event").
func (m *Macro) addEvent(evType, code, value any) error {
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		t, err := resolveEventField(m.rt, evType)
		if err != nil {
			return fmt.Errorf("event: type: %w", err)
		}
		c, err := resolveEventField(m.rt, code)
		if err != nil {
			return fmt.Errorf("event: code: %w", err)
		}
		v, err := asInt(resolveArg(m.rt, value))
		if err != nil {
			return fmt.Errorf("event: value: %w", err)
		}
		h(uint16(t), uint16(c), int32(v))
		return m.keystrokePause(ctx)
	})
	return nil
}

// resolveEventField accepts either a numeric code or a symbolic key
// name for the "event" task's type/code arguments.
func resolveEventField(rt *Runtime, value any) (int, error) {
	resolved := resolveArg(rt, value)
	switch v := resolved.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		return symbolToCode(rt, v)
	default:
		return 0, fmt.Errorf("cannot resolve %v to an event field", resolved)
	}
}

var mouseDirections = map[string]struct {
	code  uint16
	scale int32
}{
	"up":    {model.RelY, -1},
	"down":  {model.RelY, 1},
	"left":  {model.RelX, -1},
	"right": {model.RelX, 1},
}

// addMouse moves the pointer along one axis at speed while the trigger
// is held (spec: "mouse").
func (m *Macro) addMouse(direction any, speed any) error {
	dirName, err := asString(direction)
	if err != nil {
		return fmt.Errorf("mouse: %w", err)
	}
	dir, ok := mouseDirections[lower(dirName)]
	if !ok {
		return fmt.Errorf("mouse: unknown direction %q", dirName)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		speedVal, err := asInt(resolveArg(m.rt, speed))
		if err != nil {
			return err
		}
		step := dir.scale * int32(speedVal)
		period := rateLoopPeriod(m.rt.RateHz)
		for m.IsHolding() {
			h(model.EvRel, dir.code, step)
			if err := sleep(ctx, period); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

var wheelDirections = map[string]struct {
	code, hiResCode uint16
	scale, hiScale  float64
}{
	"up":    {model.RelWheel, model.RelWheelHiRes, 1.0 / 120, 1},
	"down":  {model.RelWheel, model.RelWheelHiRes, -1.0 / 120, -1},
	"left":  {model.RelHWheel, model.RelHWheelHiRes, 1.0 / 120, 1},
	"right": {model.RelHWheel, model.RelHWheelHiRes, -1.0 / 120, -1},
}

// addWheel scrolls while the trigger is held, pairing a legacy
// REL_WHEEL tick for every 120 hi-res units exactly as spec §4.6's
// "hi-res wheel" quirk describes (spec: "wheel").
func (m *Macro) addWheel(direction any, speed any) error {
	dirName, err := asString(direction)
	if err != nil {
		return fmt.Errorf("wheel: %w", err)
	}
	dir, ok := wheelDirections[lower(dirName)]
	if !ok {
		return fmt.Errorf("wheel: unknown direction %q", dirName)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		speedVal, err := asFloat(resolveArg(m.rt, speed))
		if err != nil {
			return err
		}

		var remainderLegacy, remainderHi float64
		period := rateLoopPeriod(m.rt.RateHz)

		for m.IsHolding() {
			legacy := dir.scale*speedVal + remainderLegacy
			remainderLegacy = math.Mod(legacy, 1)
			if math.Abs(legacy) >= 1 {
				h(model.EvRel, dir.code, int32(legacy))
			}

			hi := dir.hiScale*speedVal + remainderHi
			remainderHi = math.Mod(hi, 1)
			if math.Abs(hi) >= 1 {
				h(model.EvRel, dir.hiResCode, int32(hi))
			}

			if err := sleep(ctx, period); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// addWait pauses for timeMs milliseconds (spec: "wait").
func (m *Macro) addWait(timeMs any) error {
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		ms, err := asFloat(resolveArg(m.rt, timeMs))
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		return sleep(ctx, millis(ms))
	})
	return nil
}

// addSet stores value under variable (spec: "set/add" — the "set"
// half).
func (m *Macro) addSet(variable string, value any) error {
	if err := requireVariableName(variable); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		resolved := resolveArg(m.rt, value)
		m.rt.Store.Set(variable, resolved)
		return nil
	})
	return nil
}

// addAdd increments variable by delta, defaulting the prior value to 0
// when unset or non-numeric (spec: "set/add" — the "add" half).
func (m *Macro) addAdd(variable string, delta any) error {
	if err := requireVariableName(variable); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		deltaVal, err := asFloat(resolveArg(m.rt, delta))
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}
		current, _ := asFloat(m.rt.Store.Get(variable))
		m.rt.Store.Set(variable, current+deltaVal)
		return nil
	})
	return nil
}

// addIfEq runs then if value1 == value2 (after resolving variables),
// else runs elseMacro if given (spec: "if_eq").
func (m *Macro) addIfEq(value1, value2 any, thenMacro, elseMacro *Macro) error {
	if thenMacro != nil {
		m.childMacros = append(m.childMacros, thenMacro)
	}
	if elseMacro != nil {
		m.childMacros = append(m.childMacros, elseMacro)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		a := resolveArg(m.rt, value1)
		b := resolveArg(m.rt, value2)
		if valuesEqual(a, b) {
			if thenMacro != nil {
				return thenMacro.Run(ctx, h)
			}
			return nil
		}
		if elseMacro != nil {
			return elseMacro.Run(ctx, h)
		}
		return nil
	})
	return nil
}

// addIfTap runs then if the trigger is released again within timeoutMs
// of this task starting, else runs elseMacro (spec: "if_tap"). If the
// trigger is already released when this task starts (the preceding key
// was a quick tap before if_tap was even reached), it waits for a
// fresh press+release cycle first, per SPEC_FULL.md's resolved Open
// Question.
func (m *Macro) addIfTap(thenMacro, elseMacro *Macro, timeoutMs any) error {
	if thenMacro != nil {
		m.childMacros = append(m.childMacros, thenMacro)
	}
	if elseMacro != nil {
		m.childMacros = append(m.childMacros, elseMacro)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		ms, err := asFloat(resolveArg(m.rt, timeoutMs))
		if err != nil {
			return fmt.Errorf("if_tap: %w", err)
		}

		waitCtx, cancel := context.WithTimeout(ctx, millis(ms))
		defer cancel()

		waitErr := func() error {
			if m.IsHolding() {
				return m.triggerRelease.Wait(waitCtx)
			}
			if err := m.triggerPress.Wait(waitCtx); err != nil {
				return err
			}
			return m.triggerRelease.Wait(waitCtx)
		}()

		if waitErr == nil {
			if thenMacro != nil {
				return thenMacro.Run(ctx, h)
			}
			return nil
		}
		if waitCtx.Err() != nil && ctx.Err() == nil {
			// timed out, not parent-canceled
			if elseMacro != nil {
				return elseMacro.Run(ctx, h)
			}
			return nil
		}
		return waitErr
	})
	return nil
}

// addIfSingle runs then if the trigger is released before any other
// key is pressed, else runs elseMacro (spec: "if_single"). Grounded on
// mapping_handler's if_single listener pattern: registers a raw
// listener on every event flowing through the device, independent of
// what the handler graph consumes.
func (m *Macro) addIfSingle(thenMacro, elseMacro *Macro, timeoutMs any) error {
	if thenMacro != nil {
		m.childMacros = append(m.childMacros, thenMacro)
	}
	if elseMacro != nil {
		m.childMacros = append(m.childMacros, elseMacro)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		otherKeyPressed := make(chan struct{})
		var once sync.Once

		id := m.rt.Listeners.AddListener(func(ev model.InputEvent) bool {
			if ev.Type != model.EvKey || ev.Value != 1 {
				return false
			}
			once.Do(func() { close(otherKeyPressed) })
			return false
		})
		defer m.rt.Listeners.RemoveListener(id)

		waitCtx := ctx
		if timeoutMs != nil {
			if ms, err := asFloat(resolveArg(m.rt, timeoutMs)); err == nil {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(ctx, millis(ms))
				defer cancel()
			}
		}

		select {
		case <-otherKeyPressed:
			if elseMacro != nil {
				return elseMacro.Run(ctx, h)
			}
			return nil
		case <-m.triggerRelease.channel():
			if thenMacro != nil {
				return thenMacro.Run(ctx, h)
			}
			return nil
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if elseMacro != nil {
				return elseMacro.Run(ctx, h)
			}
			return nil
		}
	})
	return nil
}

// addMouseXY moves the cursor along both axes at once with independent
// fractional acceleration per axis, supplementing spec §4.7's prose
// mention of "mouse_xy"; grounded on original_source's mouse_xy.py,
// whose displacement-accumulator trick is needed to get smooth
// sub-pixel-per-tick acceleration despite the cursor only moving by
// whole pixels.
func (m *Macro) addMouseXY(x, y, acceleration any) error {
	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		xSpeed, err := asFloat(resolveArg(m.rt, x))
		if err != nil {
			return fmt.Errorf("mouse_xy: x: %w", err)
		}
		ySpeed, err := asFloat(resolveArg(m.rt, y))
		if err != nil {
			return fmt.Errorf("mouse_xy: y: %w", err)
		}
		accel, err := asFloat(resolveArg(m.rt, acceleration))
		if err != nil {
			return fmt.Errorf("mouse_xy: acceleration: %w", err)
		}

		var wg sync.WaitGroup
		var errX, errY error
		wg.Add(2)
		go func() {
			defer wg.Done()
			errX = m.mouseAxisLoop(ctx, h, model.RelX, xSpeed, accel)
		}()
		go func() {
			defer wg.Done()
			errY = m.mouseAxisLoop(ctx, h, model.RelY, ySpeed, accel)
		}()
		wg.Wait()

		if errX != nil {
			return errX
		}
		return errY
	})
	return nil
}

func (m *Macro) mouseAxisLoop(ctx context.Context, h Handler, code uint16, speed, fractionalAccel float64) error {
	acceleration := speed * fractionalAccel
	direction := 1.0
	if speed < 0 {
		direction = -1
	}

	currentSpeed := 0.0
	accumulator := 0.0
	displacement := 0
	if acceleration <= 0 {
		displacement = int(speed)
	}

	period := rateLoopPeriod(m.rt.RateHz)
	for m.IsHolding() {
		if acceleration != 0 && math.Abs(currentSpeed) < math.Abs(speed) {
			currentSpeed += acceleration
			if math.Abs(currentSpeed) > math.Abs(speed) {
				currentSpeed = direction * math.Abs(speed)
			}
			accumulator += currentSpeed
			displacement = int(accumulator)
			accumulator -= float64(displacement)
		}

		if displacement != 0 {
			h(model.EvRel, code, int32(displacement))
		}

		if err := sleep(ctx, period); err != nil {
			return err
		}
	}
	return nil
}

// addModTap writes defaultSymbol if the trigger releases before
// tappingTermMs elapses, or holds modifierSymbol down (replaying any
// keys buffered in the meantime) if the timeout fires first —
// home-row-modifier behavior, supplementing spec §4.7's prose mention
// of "mod_tap"; grounded on original_source's mod_tap.py.
func (m *Macro) addModTap(defaultSymbol, modifierSymbol any, tappingTermMs any) error {
	if err := requireSymbol(defaultSymbol); err != nil {
		return fmt.Errorf("mod_tap: %w", err)
	}
	if err := requireSymbol(modifierSymbol); err != nil {
		return fmt.Errorf("mod_tap: %w", err)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		termMs, err := asFloat(resolveArg(m.rt, tappingTermMs))
		if err != nil {
			return fmt.Errorf("mod_tap: %w", err)
		}

		var mu sync.Mutex
		var recorded []model.InputEvent

		id := m.rt.Listeners.AddListener(func(ev model.InputEvent) bool {
			if ev.Type != model.EvKey {
				return false
			}
			mu.Lock()
			recorded = append(recorded, ev)
			mu.Unlock()
			return true // suppress: buffered for replay below
		})

		timeoutCtx, cancel := context.WithTimeout(ctx, millis(termMs))
		releaseErr := m.triggerRelease.Wait(timeoutCtx)
		hasTimedOut := timeoutCtx.Err() != nil && ctx.Err() == nil
		cancel()

		m.rt.Listeners.RemoveListener(id)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = releaseErr

		var symbol any
		if hasTimedOut {
			symbol = modifierSymbol
		} else {
			symbol = defaultSymbol
		}

		code, err := resolveSymbol(m.rt, symbol)
		if err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 1)
		if err := m.keystrokePause(ctx); err != nil {
			return err
		}

		mu.Lock()
		toReplay := recorded
		mu.Unlock()
		for _, ev := range toReplay {
			if m.rt.Replay != nil {
				if err := m.rt.Replay(ev); err != nil {
					return err
				}
			}
			if err := m.keystrokePause(ctx); err != nil {
				return err
			}
		}

		if err := m.triggerRelease.Wait(ctx); err != nil {
			return err
		}
		h(model.EvKey, uint16(code), 0)
		return m.keystrokePause(ctx)
	})
	return nil
}

// addIfLed runs then if ledCode is currently lit on the source device,
// else elseMacro (spec §4.7's "if_led (capslock/numlock query)").
func (m *Macro) addIfLed(ledCode any, thenMacro, elseMacro *Macro) error {
	if thenMacro != nil {
		m.childMacros = append(m.childMacros, thenMacro)
	}
	if elseMacro != nil {
		m.childMacros = append(m.childMacros, elseMacro)
	}

	m.tasks = append(m.tasks, func(ctx context.Context, h Handler) error {
		if m.rt.LedQuery == nil {
			return fmt.Errorf("if_led: no LED source configured")
		}
		code, err := asInt(resolveArg(m.rt, ledCode))
		if err != nil {
			return fmt.Errorf("if_led: %w", err)
		}
		lit, err := m.rt.LedQuery()
		if err != nil {
			return fmt.Errorf("if_led: %w", err)
		}
		on := false
		for _, l := range lit {
			if int(l) == code {
				on = true
				break
			}
		}
		if on {
			if thenMacro != nil {
				return thenMacro.Run(ctx, h)
			}
			return nil
		}
		if elseMacro != nil {
			return elseMacro.Run(ctx, h)
		}
		return nil
	})
	return nil
}
