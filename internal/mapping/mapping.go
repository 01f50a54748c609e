// Package mapping implements the Mapping and Preset types of spec §3:
// one input combination bound to one output (a key, a macro, or an
// axis conversion), plus the six validation rules that decide whether
// a combination is constructible at all.
//
// Grounded on original_source/inputremapper/configs/mapping.py's
// pydantic Mapping model. Go has no validate-on-every-assignment
// mechanism equivalent to pydantic's Config.validate_assignment, so
// validation here runs once, eagerly, in New — matching how every
// other collaborator in this codebase favors constructor-time checks
// over field mutation (see internal/keyboardlayout, internal/evdevio).
// UIMapping's allow-invalid-during-editing cache has no analogue here:
// spec's Non-goals exclude the GUI that needed it.
package mapping

import (
	"fmt"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/macro"
	"github.com/victortrac/inputcore/internal/model"
)

// KnownUinput names the sink a mapping's output is routed to (spec §2
// "the registry of named output sinks").
type KnownUinput string

const (
	Keyboard KnownUinput = "keyboard"
	Mouse    KnownUinput = "mouse"
	Gamepad  KnownUinput = "gamepad"
)

// Mapping binds one InputCombination to one output action (spec §3).
type Mapping struct {
	EventCombination model.InputCombination
	TargetUinput     KnownUinput

	// Exactly one of OutputSymbol, or (OutputType, OutputCode), is set.
	OutputSymbol string
	OutputType   uint16
	OutputCode   uint16
	hasOutputTC  bool

	MacroKeySleepMs int // default 20

	// Axis-to-axis transformation parameters.
	Deadzone float64 // [0,1], default 0.1
	Gain     float64 // default 1.0
	Expo     float64 // [-1,1], default 0

	RateHz   float64 // EV_REL generation rate, default 60
	RelSpeed int     // base speed compounding with Gain, default 100

	RelInputCutoff int     // default 100
	ReleaseTimeout float64 // seconds, default 0.05
}

// Option configures a Mapping at construction time.
type Option func(*Mapping)

func WithOutputSymbol(symbol string) Option {
	return func(m *Mapping) { m.OutputSymbol = symbol }
}

func WithOutputEvent(evType, code uint16) Option {
	return func(m *Mapping) {
		m.OutputType = evType
		m.OutputCode = code
		m.hasOutputTC = true
	}
}

func WithMacroKeySleepMs(ms int) Option        { return func(m *Mapping) { m.MacroKeySleepMs = ms } }
func WithDeadzone(d float64) Option            { return func(m *Mapping) { m.Deadzone = d } }
func WithGain(g float64) Option                { return func(m *Mapping) { m.Gain = g } }
func WithExpo(e float64) Option                { return func(m *Mapping) { m.Expo = e } }
func WithRateHz(hz float64) Option             { return func(m *Mapping) { m.RateHz = hz } }
func WithRelSpeed(speed int) Option            { return func(m *Mapping) { m.RelSpeed = speed } }
func WithRelInputCutoff(cutoff int) Option     { return func(m *Mapping) { m.RelInputCutoff = cutoff } }
func WithReleaseTimeout(seconds float64) Option { return func(m *Mapping) { m.ReleaseTimeout = seconds } }

// New constructs and validates a Mapping, running all six rules
// described in spec §3 (mirroring mapping.py's validator chain). layout
// is needed to resolve output_symbol key names; pass nil if
// outputSymbol is always a macro string or empty.
func New(combination model.InputCombination, target KnownUinput, layout *keyboardlayout.Layout, opts ...Option) (*Mapping, error) {
	m := &Mapping{
		EventCombination: combination,
		TargetUinput:     target,
		MacroKeySleepMs:  20,
		Deadzone:         0.1,
		Gain:             1.0,
		Expo:             0,
		RateHz:           60,
		RelSpeed:         100,
		RelInputCutoff:   100,
		ReleaseTimeout:   0.05,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.validateSymbol(layout); err != nil {
		return nil, err
	}
	if err := m.onlyOneAnalogInput(); err != nil {
		return nil, err
	}
	if err := m.triggerPointInRange(); err != nil {
		return nil, err
	}
	if err := m.containsOutput(); err != nil {
		return nil, err
	}
	if err := m.validateOutputIntegrity(layout); err != nil {
		return nil, err
	}
	if err := m.outputAxisGiven(); err != nil {
		return nil, err
	}

	return m, nil
}

// validateSymbol checks output_symbol is either a well-formed macro or
// a known key name (mapping.py's validate_symbol).
func (m *Mapping) validateSymbol(layout *keyboardlayout.Layout) error {
	if m.OutputSymbol == "" {
		return nil
	}

	if macro.IsMacro(m.OutputSymbol) {
		if _, err := macro.ParseMacro(m.OutputSymbol, &macro.Runtime{Layout: layout}); err != nil {
			return fmt.Errorf("output_symbol %q: %w", m.OutputSymbol, err)
		}
		return nil
	}

	if layout == nil {
		return nil
	}
	if _, ok := layout.Get(m.OutputSymbol); !ok {
		return fmt.Errorf("output_symbol %q is not a macro and not a valid key name", m.OutputSymbol)
	}
	return nil
}

// onlyOneAnalogInput rejects combinations mapping more than one analog
// input at once (mapping.py's only_one_analog_input).
func (m *Mapping) onlyOneAnalogInput() error {
	if m.EventCombination.AnalogCount() > 1 {
		return fmt.Errorf("cannot map a combination of multiple analog inputs; add trigger points to map as a button")
	}
	return nil
}

// triggerPointInRange rejects EV_ABS trigger thresholds that are not
// strictly between -100 and 100 percent (mapping.py's
// trigger_point_in_range).
func (m *Mapping) triggerPointInRange() error {
	for _, ic := range m.EventCombination {
		if ic.Type == model.EvAbs && !ic.IsAnalog() {
			if abs(ic.AnalogThreshold) >= 100 {
				return fmt.Errorf("event %+v maps an absolute axis to a button, but the trigger point is not between -100%% and 100%%", ic)
			}
		}
	}
	return nil
}

// containsOutput requires either an output symbol or a full
// (type, code) pair (mapping.py's contains_output).
func (m *Mapping) containsOutput() error {
	if m.OutputSymbol == "" && !m.hasOutputTC {
		return fmt.Errorf("mapping must specify either output_symbol or output_type and output_code")
	}
	return nil
}

// validateOutputIntegrity forbids type/code alongside a macro and
// requires type/code-with-symbol to agree with the symbol's own code
// (mapping.py's validate_output_integrity).
func (m *Mapping) validateOutputIntegrity(layout *keyboardlayout.Layout) error {
	if m.OutputSymbol == "" {
		return nil
	}
	if !m.hasOutputTC {
		return nil
	}
	if macro.IsMacro(m.OutputSymbol) {
		return fmt.Errorf("output_symbol is a macro: output_type and output_code must be unset")
	}
	if layout != nil {
		code, ok := layout.Get(m.OutputSymbol)
		if !ok || m.OutputType != model.EvKey || int(m.OutputCode) != code {
			return fmt.Errorf("output_symbol and output_code mismatch: %q resolves to a different code", m.OutputSymbol)
		}
	}
	return nil
}

// outputAxisGiven requires an axis output type when the combination
// contains an analog input (mapping.py's output_axis_given).
func (m *Mapping) outputAxisGiven() error {
	if !m.EventCombination.HasAnalog() {
		return nil
	}
	if !m.hasOutputTC {
		// a macro/key output_symbol implies an EV_KEY output, handled
		// elsewhere; only an explicit (type, code) output needs this check.
		return nil
	}
	if m.OutputType != model.EvAbs && m.OutputType != model.EvRel {
		return fmt.Errorf("event_combination specifies an input axis, but output_type is not an axis")
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
