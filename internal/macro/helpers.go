package macro

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sleep blocks for d or until ctx is canceled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// symbolToCode resolves a key/button symbol (e.g. "KEY_A", "a",
// "BTN_LEFT") to its evdev code via the shared keyboard layout,
// mirroring macro.py's _type_check_symbol against system_mapping.
func symbolToCode(rt *Runtime, symbol string) (int, error) {
	code, ok := rt.Layout.Get(symbol)
	if !ok {
		return 0, fmt.Errorf("unknown key %q", symbol)
	}
	return code, nil
}

// resolveSymbol resolves value (which may be a *Variable, a string
// symbol name, or an already-resolved int code) down to a concrete
// evdev code at task run time.
func resolveSymbol(rt *Runtime, value any) (int, error) {
	resolved := resolveArg(rt, value)
	switch v := resolved.(type) {
	case string:
		return symbolToCode(rt, v)
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("cannot resolve %v (%T) to a key code", resolved, resolved)
	}
}

// asInt coerces a resolved macro value into an int, matching macro.py's
// permissive _type_check([int, ...]) casting of numeric strings.
func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %v (%T)", value, value)
	}
}

// asFloat coerces a resolved macro value into a float64.
func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %v (%T)", value, value)
	}
}

// valuesEqual compares two resolved macro values for if_eq, treating
// int and float64 as the same numeric domain (spec: "numbers compare
// as numbers") instead of Go's interface equality, which would
// otherwise see set(x, 5) (decoded as float64 by the variable store)
// and the literal 5 (parsed as int) as unequal.
func valuesEqual(a, b any) bool {
	af, aErr := asFloat(a)
	bf, bErr := asFloat(b)
	if aErr == nil && bErr == nil {
		return af == bf
	}
	return a == b
}

// asString coerces a resolved macro value into a string.
func asString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a string, got %v (%T)", value, value)
	}
}

// asMacro type-asserts value as *Macro, allowing nil.
func asMacro(value any) (*Macro, error) {
	if value == nil {
		return nil, nil
	}
	m, ok := value.(*Macro)
	if !ok {
		return nil, fmt.Errorf("expected a macro, got %v (%T)", value, value)
	}
	return m, nil
}

// requireSymbol validates at parse time that value is either a
// *Variable (resolved later) or a string naming a key/button, mirroring
// macro.py's _type_check_symbol run eagerly so broken key names are
// caught before injection starts.
func requireSymbol(value any) error {
	if _, ok := value.(*Variable); ok {
		return nil
	}
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected a key name, got %v (%T)", value, value)
	}
	return nil
}

var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)

// requireVariableName validates set/add's first argument the way
// macro.py's _type_check_variablename does: it must look like an
// identifier so it can't collide with macro syntax.
func requireVariableName(name string) error {
	if !variableNamePattern.MatchString(name) {
		return fmt.Errorf("%q is not a legal variable name", name)
	}
	return nil
}

func lower(s string) string { return strings.ToLower(s) }

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// rateLoopPeriod is the tick interval for the continuous macro tasks
// (mouse, mouse_xy, wheel), spec §4.6's "rate-pacing", defaulting to
// 60Hz (spec §3's default rel_rate) for hz <= 0. The axis transducers
// pace themselves through internal/axis and do not use it.
func rateLoopPeriod(hz float64) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	return time.Duration(float64(time.Second) / hz)
}
