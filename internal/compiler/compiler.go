// Package compiler turns a compiled mapping.Preset into the handler
// graph an internal/context.Context dispatches events through — the
// Go equivalent of original_source's
// injection/mapping_handlers/mapping_parser.parse_mappings, called
// from Context's constructor per context.py. That factory file itself
// wasn't part of the retrieved pack (only the consumer-side
// mapping_handler.py was), so this package is grounded on context.py's
// description of the step ("parse_mappings(preset, self)" building
// "_handlers: Dict[InputEvent, List[InputEventHandler]]") plus spec
// §4.3's de-duplication/hierarchy/transducer-wrapping rules and the
// handler constructors internal/handler exposes.
package compiler

import (
	"fmt"
	"sort"
	"time"

	"github.com/victortrac/inputcore/internal/axis"
	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/evdevio"
	"github.com/victortrac/inputcore/internal/handler"
	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/macro"
	"github.com/victortrac/inputcore/internal/mapping"
	"github.com/victortrac/inputcore/internal/model"
)

// AxisSink is a handler.Writer that can also report the output ranges
// it declared for its EV_ABS codes, needed to size AbsToAbs/RelToAbs
// conversions. *evdevio.Sink satisfies this.
type AxisSink interface {
	handler.Writer
	AxisRange(code uint16) (min, max int32, ok bool)
}

// Sinks maps each Mapping.TargetUinput name to the output it writes
// to, same shape as spec §6's "registry of named output sinks".
type Sinks map[mapping.KnownUinput]AxisSink

// Deps bundles the collaborators every compiled handler needs that
// aren't already on the Mapping or Preset: the source device (for
// EV_ABS bounds and if_led's LED query), the shared macro variable
// store, and the Context itself (doubling as macro.Listeners and the
// mod_tap replay hook).
type Deps struct {
	Layout *keyboardlayout.Layout
	Source *evdevio.SourceDevice
	Store  macro.VarStore
	Ctx    *icontext.Context
}

// registration is one handler's claim on a dispatch key, collected
// across the whole preset before anything is added to the Context, so
// mappings that share a key can be grouped under a single
// HierarchyHandler (spec §4.3's "Hierarchy") instead of being
// registered as independent, uncoordinated callbacks.
type registration struct {
	key         model.TypeAndCode
	handler     icontext.Handler
	specificity int // combination length; more members sort first
}

// Compile builds one handler per Mapping in preset, groups the ones
// that land on the same (type, code) dispatch key under a
// HierarchyHandler ordered most-specific-first, and registers the
// result with ctx, per spec §4.3. Returns an error (aborting the whole
// preset) if any mapping can't be compiled.
func Compile(preset *mapping.Preset, sinks Sinks, deps Deps) error {
	byKey := make(map[model.TypeAndCode][]registration)

	for _, m := range preset.Mappings() {
		regs, err := compileOne(m, sinks, deps)
		if err != nil {
			return fmt.Errorf("compiling mapping %v: %w", m.EventCombination, err)
		}
		for _, r := range regs {
			byKey[r.key] = append(byKey[r.key], r)
		}
	}

	for key, regs := range byKey {
		if len(regs) == 1 {
			deps.Ctx.AddHandler(key, regs[0].handler)
			continue
		}

		sort.SliceStable(regs, func(i, j int) bool {
			return regs[i].specificity > regs[j].specificity
		})
		handlers := make([]icontext.Handler, len(regs))
		for i, r := range regs {
			handlers[i] = r.handler
		}
		deps.Ctx.AddHandler(key, &handler.HierarchyHandler{Handlers: handlers})
	}

	return nil
}

// compileOne builds m's handler and reports every dispatch key it
// needs to be registered under. A multi-key combination's
// CombinationHandler is the same handler value under every member key,
// so it only wins the hierarchy once per key but still observes every
// member event.
func compileOne(m *mapping.Mapping, sinks Sinks, deps Deps) ([]registration, error) {
	sink, ok := sinks[m.TargetUinput]
	if !ok {
		return nil, fmt.Errorf("no sink registered for target %q", m.TargetUinput)
	}

	trigger := m.EventCombination.Trigger()
	specificity := len(m.EventCombination)

	// A full analog-axis output (spec §4.6's abs/rel transducers) is
	// only meaningful for a single-element combination: chording an
	// axis with held modifier keys doesn't fit the press/release model
	// CombinationHandler implements, and mapping.New's
	// onlyOneAnalogInput/outputAxisGiven validators already guarantee
	// this is the shape whenever hasOutputTC names an axis type.
	if m.EventCombination.HasAnalog() {
		h, err := buildAxisHandler(m, trigger, sink, deps)
		if err != nil {
			return nil, err
		}
		return []registration{{key: trigger.Key(), handler: h, specificity: specificity}}, nil
	}

	sub, err := buildOutput(m, sink, deps)
	if err != nil {
		return nil, err
	}

	keys := make([]model.TypeAndCode, len(m.EventCombination))
	for i, ic := range m.EventCombination {
		keys[i] = ic.Key()
	}

	if len(m.EventCombination) == 1 {
		h, err := wrapButtonAdapter(trigger, sub, deps)
		if err != nil {
			return nil, err
		}
		return []registration{{key: trigger.Key(), handler: h, specificity: specificity}}, nil
	}

	for _, ic := range m.EventCombination {
		if ic.Type != model.EvKey {
			return nil, fmt.Errorf("combination member %+v: multi-key combinations only support EV_KEY members", ic)
		}
	}

	combo := handler.NewCombinationHandler(keys, trigger.Key(), sub, deps.Ctx.Replay)
	regs := make([]registration, len(keys))
	for i, key := range keys {
		regs[i] = registration{key: key, handler: combo, specificity: specificity}
	}
	return regs, nil
}

// wrapButtonAdapter wraps sub in an AbsToBtnHandler/RelToBtnHandler
// when the single-element combination's trigger is an analog input
// used as a button (a non-zero AnalogThreshold), leaving sub
// untouched for a plain EV_KEY trigger.
func wrapButtonAdapter(trigger model.InputConfig, sub icontext.Handler, deps Deps) (icontext.Handler, error) {
	switch trigger.Type {
	case model.EvKey:
		return sub, nil
	case model.EvAbs:
		absMin, absMax, err := absBounds(deps.Source, trigger.Code)
		if err != nil {
			return nil, err
		}
		threshold := float64(trigger.AnalogThreshold) / 100
		return handler.NewAbsToBtnHandler(threshold, absMin, absMax, sub), nil
	case model.EvRel:
		return handler.NewRelToBtnHandler(int32(trigger.AnalogThreshold), 50*time.Millisecond, sub), nil
	default:
		return nil, fmt.Errorf("unsupported trigger type %d", trigger.Type)
	}
}

// buildOutput compiles the key/macro end of a mapping: either a
// straight key remap or a parsed macro tree, per spec §3/§4.5.
func buildOutput(m *mapping.Mapping, sink handler.Writer, deps Deps) (icontext.Handler, error) {
	if m.OutputSymbol != "" && macro.IsMacro(m.OutputSymbol) {
		rt := &macro.Runtime{
			Store:          deps.Store,
			Listeners:      deps.Ctx,
			Layout:         deps.Layout,
			KeystrokeSleep: time.Duration(m.MacroKeySleepMs) * time.Millisecond,
			RateHz:         m.RateHz,
			Replay:         deps.Ctx.Replay,
		}
		if deps.Source != nil {
			rt.LedQuery = deps.Source.Leds
		}
		tree, err := macro.ParseMacro(m.OutputSymbol, rt)
		if err != nil {
			return nil, fmt.Errorf("parsing macro %q: %w", m.OutputSymbol, err)
		}
		return handler.NewMacroHandler(sink, tree, string(m.TargetUinput)), nil
	}

	if m.OutputSymbol != "" {
		code, ok := deps.Layout.Get(m.OutputSymbol)
		if !ok {
			return nil, fmt.Errorf("output_symbol %q is not a known key", m.OutputSymbol)
		}
		return handler.NewKeyHandler(sink, model.EvKey, uint16(code), string(m.TargetUinput)), nil
	}

	if m.OutputType == model.EvKey {
		return handler.NewKeyHandler(sink, m.OutputType, m.OutputCode, string(m.TargetUinput)), nil
	}

	return nil, fmt.Errorf("mapping has no key or macro output")
}

// buildAxisHandler compiles the four abs<->rel transducer directions
// of spec §4.6 for a single analog trigger element.
func buildAxisHandler(m *mapping.Mapping, trigger model.InputConfig, sink AxisSink, deps Deps) (icontext.Handler, error) {
	switch {
	case trigger.Type == model.EvAbs && m.OutputType == model.EvAbs:
		srcMin, srcMax, err := absBounds(deps.Source, trigger.Code)
		if err != nil {
			return nil, err
		}
		outMin, outMax, ok := sink.AxisRange(m.OutputCode)
		if !ok {
			return nil, fmt.Errorf("sink has no declared range for output axis %d", m.OutputCode)
		}
		t := &axis.AbsToAbs{Expo: m.Expo}
		return handler.NewAbsToAbsHandler(t, sink, m.OutputCode, srcMin, srcMax, outMin, outMax), nil

	case trigger.Type == model.EvAbs && m.OutputType == model.EvRel:
		srcMin, srcMax, err := absBounds(deps.Source, trigger.Code)
		if err != nil {
			return nil, err
		}
		t := &axis.AbsToRel{Deadzone: m.Deadzone, Expo: m.Expo, Gain: m.Gain * float64(m.RelSpeed) / 100, RateHz: m.RateHz}
		return handler.NewAbsToRelHandler(t, sink, m.OutputCode, srcMin, srcMax, string(m.TargetUinput)), nil

	case trigger.Type == model.EvRel && m.OutputType == model.EvAbs:
		outMin, outMax, ok := sink.AxisRange(m.OutputCode)
		if !ok {
			return nil, fmt.Errorf("sink has no declared range for output axis %d", m.OutputCode)
		}
		t := &axis.RelToAbs{Gain: m.Gain / float64(m.RelInputCutoff), DecayPerTick: 0.1, RateHz: m.RateHz, OutMin: outMin, OutMax: outMax}
		return handler.NewRelToAbsHandler(t, sink, m.OutputCode, string(m.TargetUinput)), nil

	case trigger.Type == model.EvRel && m.OutputType == model.EvRel:
		t := &axis.RelToRel{Gain: m.Gain}
		return handler.NewRelToRelHandler(t, sink, m.OutputCode), nil

	default:
		return nil, fmt.Errorf("unsupported axis conversion %d -> %d", trigger.Type, m.OutputType)
	}
}

// RequiredCapabilities computes the capability set each of preset's
// target sinks needs, the "union of capabilities any loaded preset may
// need" spec §4.3 calls for. The keyboard and mouse sinks always get
// their full standard capability sets (a macro's key() task can name
// any key at runtime, not just the ones mentioned by name in the
// preset); the gamepad sink gets exactly the button/axis codes this
// preset's mappings reference, sizing EV_ABS axes from src's absinfo
// when the mapping's trigger is itself an EV_ABS (so the output range
// matches the input range) and a wide synthetic default otherwise.
func RequiredCapabilities(preset *mapping.Preset, src *evdevio.SourceDevice) map[mapping.KnownUinput]evdevio.Capabilities {
	out := make(map[mapping.KnownUinput]evdevio.Capabilities)

	for _, m := range preset.Mappings() {
		switch m.TargetUinput {
		case mapping.Keyboard:
			out[mapping.Keyboard] = evdevio.MergeCapabilities(out[mapping.Keyboard], evdevio.StandardKeyboardCapabilities())
		case mapping.Mouse:
			out[mapping.Mouse] = evdevio.MergeCapabilities(out[mapping.Mouse], evdevio.StandardMouseCapabilities())
		case mapping.Gamepad:
			out[mapping.Gamepad] = evdevio.MergeCapabilities(out[mapping.Gamepad], gamepadCapabilitiesFor(m, src))
		}
	}

	return out
}

func gamepadCapabilitiesFor(m *mapping.Mapping, src *evdevio.SourceDevice) evdevio.Capabilities {
	var caps evdevio.Capabilities

	trigger := m.EventCombination.Trigger()

	switch m.OutputType {
	case model.EvKey:
		caps.Keys = append(caps.Keys, m.OutputCode)
	case model.EvRel:
		caps.Rel = append(caps.Rel, m.OutputCode)
	case model.EvAbs:
		min, max := int32(-32768), int32(32767)
		if trigger.Type == model.EvAbs {
			if bmin, bmax, err := absBounds(src, trigger.Code); err == nil {
				min, max = bmin, bmax
			}
		}
		caps.Abs = append(caps.Abs, evdevio.AxisCapability{Code: m.OutputCode, Min: min, Max: max})
	}

	return caps
}

func absBounds(src *evdevio.SourceDevice, code uint16) (min, max int32, err error) {
	if src == nil {
		return 0, 0, fmt.Errorf("no source device to query absinfo for code %d", code)
	}
	info, err := src.AbsInfo(code)
	if err != nil {
		return 0, 0, err
	}
	return info.Min, info.Max, nil
}
