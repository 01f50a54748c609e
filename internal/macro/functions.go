package macro

import "fmt"

// functionSpec is one entry of the parser's dispatch table: the
// min/max argument count used to validate a call (mirrors parse.py's
// get_num_parameters, computed there via inspect instead of declared
// up front) and the builder that turns parsed positional/keyword
// argument values into an appended task on m.
type functionSpec struct {
	minArgs, maxArgs int
	build            func(m *Macro, pos []any, kw map[string]any) error
}

// argAt resolves a call argument by position first, then by keyword
// name, mirroring how parse.py merges positional_args/keyword_args
// before calling the target function.
func argAt(pos []any, kw map[string]any, index int, name string) any {
	if index < len(pos) {
		return pos[index]
	}
	if v, ok := kw[name]; ok {
		return v
	}
	return nil
}

// functionTable is FUNCTIONS from parse.py, plus the shorthand letters
// ("m", "r", "k", ...) and the tasks supplemented from
// original_source/injection/macros/tasks/ (mouse_xy, mod_tap) and
// spec §4.7's prose (if_led, parallel, add).
var functionTable map[string]functionSpec

func init() {
	functionTable = map[string]functionSpec{
		"key": {1, 1, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addKey(argAt(pos, kw, 0, "symbol"))
		}},
		"hold": {0, 1, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addHold(argAt(pos, kw, 0, "macro"))
		}},
		"modify": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			child, err := asMacro(argAt(pos, kw, 1, "macro"))
			if err != nil {
				return err
			}
			return m.addModify(argAt(pos, kw, 0, "modifier"), child)
		}},
		"hold_keys": {1, 32, func(m *Macro, pos []any, kw map[string]any) error {
			if len(kw) > 0 {
				return fmt.Errorf("hold_keys takes no keyword arguments")
			}
			return m.addHoldKeys(pos)
		}},
		"repeat": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			child, err := asMacro(argAt(pos, kw, 1, "macro"))
			if err != nil {
				return err
			}
			return m.addRepeat(argAt(pos, kw, 0, "repeats"), child)
		}},
		"parallel": {1, 32, func(m *Macro, pos []any, kw map[string]any) error {
			if len(kw) > 0 {
				return fmt.Errorf("parallel takes no keyword arguments")
			}
			children := make([]*Macro, len(pos))
			for i, p := range pos {
				child, err := asMacro(p)
				if err != nil {
					return fmt.Errorf("parallel: argument %d: %w", i, err)
				}
				children[i] = child
			}
			return m.addParallel(children)
		}},
		"event": {3, 3, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addEvent(
				argAt(pos, kw, 0, "type"),
				argAt(pos, kw, 1, "code"),
				argAt(pos, kw, 2, "value"),
			)
		}},
		"mouse": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addMouse(argAt(pos, kw, 0, "direction"), argAt(pos, kw, 1, "speed"))
		}},
		"mouse_xy": {0, 3, func(m *Macro, pos []any, kw map[string]any) error {
			x := argAt(pos, kw, 0, "x")
			if x == nil {
				x = 0
			}
			y := argAt(pos, kw, 1, "y")
			if y == nil {
				y = 0
			}
			accel := argAt(pos, kw, 2, "acceleration")
			if accel == nil {
				accel = 1
			}
			return m.addMouseXY(x, y, accel)
		}},
		"wheel": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addWheel(argAt(pos, kw, 0, "direction"), argAt(pos, kw, 1, "speed"))
		}},
		"wait": {1, 1, func(m *Macro, pos []any, kw map[string]any) error {
			return m.addWait(argAt(pos, kw, 0, "time"))
		}},
		"set": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			variable, err := asString(argAt(pos, kw, 0, "variable"))
			if err != nil {
				return err
			}
			return m.addSet(variable, argAt(pos, kw, 1, "value"))
		}},
		"add": {2, 2, func(m *Macro, pos []any, kw map[string]any) error {
			variable, err := asString(argAt(pos, kw, 0, "variable"))
			if err != nil {
				return err
			}
			return m.addAdd(variable, argAt(pos, kw, 1, "value"))
		}},
		"if_eq": {2, 4, func(m *Macro, pos []any, kw map[string]any) error {
			thenMacro, err := asMacro(argAt(pos, kw, 2, "then"))
			if err != nil {
				return err
			}
			elseMacro, err := asMacro(argAt(pos, kw, 3, "else"))
			if err != nil {
				return err
			}
			return m.addIfEq(argAt(pos, kw, 0, "value_1"), argAt(pos, kw, 1, "value_2"), thenMacro, elseMacro)
		}},
		"if_tap": {0, 3, func(m *Macro, pos []any, kw map[string]any) error {
			thenMacro, err := asMacro(argAt(pos, kw, 0, "then"))
			if err != nil {
				return err
			}
			elseMacro, err := asMacro(argAt(pos, kw, 1, "else"))
			if err != nil {
				return err
			}
			timeout := argAt(pos, kw, 2, "timeout")
			if timeout == nil {
				timeout = 300
			}
			return m.addIfTap(thenMacro, elseMacro, timeout)
		}},
		"if_single": {2, 3, func(m *Macro, pos []any, kw map[string]any) error {
			thenMacro, err := asMacro(argAt(pos, kw, 0, "then"))
			if err != nil {
				return err
			}
			elseMacro, err := asMacro(argAt(pos, kw, 1, "else"))
			if err != nil {
				return err
			}
			return m.addIfSingle(thenMacro, elseMacro, argAt(pos, kw, 2, "timeout"))
		}},
		"if_led": {1, 3, func(m *Macro, pos []any, kw map[string]any) error {
			thenMacro, err := asMacro(argAt(pos, kw, 1, "then"))
			if err != nil {
				return err
			}
			elseMacro, err := asMacro(argAt(pos, kw, 2, "else"))
			if err != nil {
				return err
			}
			return m.addIfLed(argAt(pos, kw, 0, "led"), thenMacro, elseMacro)
		}},
		"mod_tap": {2, 3, func(m *Macro, pos []any, kw map[string]any) error {
			term := argAt(pos, kw, 2, "tapping_term")
			if term == nil {
				term = 200
			}
			return m.addModTap(argAt(pos, kw, 0, "default"), argAt(pos, kw, 1, "modifier"), term)
		}},
	}

	// Shorthands, identical to parse.py's single-letter FUNCTIONS
	// entries ("the space to type is so constrained").
	functionTable["m"] = functionTable["modify"]
	functionTable["r"] = functionTable["repeat"]
	functionTable["k"] = functionTable["key"]
	functionTable["e"] = functionTable["event"]
	functionTable["w"] = functionTable["wait"]
	functionTable["h"] = functionTable["hold"]
}
