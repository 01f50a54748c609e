// Package model holds the wire-level value types shared across the
// injection pipeline: input events, input specifiers, and combinations.
package model

import (
	"hash/fnv"
	"sort"
)

// Event types and a handful of codes the core reasons about directly.
// The bulk of the KEY_*/BTN_*/REL_*/ABS_* namespace lives behind
// keyboardlayout and evdevio; these are only the ones the pipeline
// itself branches on.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvRel = 0x02
	EvAbs = 0x03
	EvMsc = 0x04
	EvFF  = 0x15
)

// A handful of REL_* codes the macro mouse/wheel tasks and the axis
// transducers branch on directly.
const (
	RelX           = 0x00
	RelY           = 0x01
	RelWheel       = 0x08
	RelHWheel      = 0x06
	RelWheelHiRes  = 0x0b
	RelHWheelHiRes = 0x0c
)

// DeviceID stably identifies a source devnode so events and replayed
// macro key-presses can be routed back to the forward sink that saw
// them originally (the "origin_hash" of spec.md's GLOSSARY).
type DeviceID uint64

// HashDevicePath derives a DeviceID from a source device's filesystem
// path. Stable across process restarts as long as the kernel assigns
// the same /dev/input/eventN node, which is all the spec requires.
func HashDevicePath(path string) DeviceID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return DeviceID(h.Sum64())
}

// InputEvent is the evdev tuple plus the derived fields spec.md §3 names.
type InputEvent struct {
	Type      uint16
	Code      uint16
	Value     int32
	TimestampUsec uint64
	Origin    DeviceID
}

// TypeAndCode is the dispatch key used by Context.callbacks.
type TypeAndCode struct {
	Type uint16
	Code uint16
}

func (e InputEvent) TypeAndCode() TypeAndCode {
	return TypeAndCode{Type: e.Type, Code: e.Code}
}

// EventTuple is the (type, code, value) triple macros and forwarding
// write verbatim.
type EventTuple struct {
	Type  uint16
	Code  uint16
	Value int32
}

func (e InputEvent) EventTuple() EventTuple {
	return EventTuple{Type: e.Type, Code: e.Code, Value: e.Value}
}

// IsKeyRepeat reports whether this is an EV_KEY auto-repeat (value 2),
// which EventReader must drop before any dispatch (spec §4.1 step 2).
func (e InputEvent) IsKeyRepeat() bool {
	return e.Type == EvKey && e.Value == 2
}

// AnalogValueMarker is the InputConfig.AnalogThreshold sentinel meaning
// "this input is analog, not a button" (spec §3).
const AnalogValueMarker = 0

// InputConfig is a single input specifier (spec §3).
type InputConfig struct {
	Type            uint16
	Code            uint16
	AnalogThreshold int // semantics depend on Type, see spec §3
	Origin          *DeviceID
}

// IsAnalog reports whether this InputConfig marks an analog input
// (USE_AS_ANALOG_VALUE), i.e. AnalogThreshold == AnalogValueMarker for
// EV_ABS/EV_REL. EV_KEY is never analog.
func (c InputConfig) IsAnalog() bool {
	if c.Type == EvKey {
		return false
	}
	return c.AnalogThreshold == AnalogValueMarker
}

// Key is the (type, code) this InputConfig dispatches under, ignoring
// the threshold — used for handler-graph lookups and combination state
// maps.
func (c InputConfig) Key() TypeAndCode {
	return TypeAndCode{Type: c.Type, Code: c.Code}
}

// InputCombination is an ordered sequence of InputConfigs; the last
// element is the trigger (spec §3).
type InputCombination []InputConfig

// Trigger returns the last element, the component whose press decides
// activation.
func (c InputCombination) Trigger() InputConfig {
	return c[len(c)-1]
}

// NonTrigger returns every element except the trigger.
func (c InputCombination) NonTrigger() []InputConfig {
	if len(c) == 0 {
		return nil
	}
	return c[:len(c)-1]
}

// AnalogCount returns how many elements are analog; Mapping validation
// rejects anything greater than 1.
func (c InputCombination) AnalogCount() int {
	n := 0
	for _, ic := range c {
		if ic.IsAnalog() {
			n++
		}
	}
	return n
}

// HasAnalog reports whether any element of the combination is analog.
func (c InputCombination) HasAnalog() bool {
	return c.AnalogCount() > 0
}

// canonicalElement is the total order used to canonicalize non-trigger
// elements: lexicographic on (Type, Code, AnalogThreshold). This
// resolves the Open Question in spec §9 / SPEC_FULL.md §5 with an
// explicit, deterministic order.
type canonicalElement struct {
	Type, Code uint16
	Threshold  int
}

// CanonicalKey returns a comparable representation of the combination
// that is identical for any permutation of the non-trigger elements,
// with the trigger held fixed at the end (spec §4.9).
func (c InputCombination) CanonicalKey() string {
	nonTrigger := c.NonTrigger()
	elems := make([]canonicalElement, len(nonTrigger))
	for i, ic := range nonTrigger {
		elems[i] = canonicalElement{Type: ic.Type, Code: ic.Code, Threshold: ic.AnalogThreshold}
	}
	sort.Slice(elems, func(i, j int) bool {
		a, b := elems[i], elems[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Threshold < b.Threshold
	})

	trig := c.Trigger()
	buf := make([]byte, 0, 16*(len(elems)+1))
	for _, e := range elems {
		buf = appendElem(buf, e.Type, e.Code, e.Threshold)
	}
	buf = appendElem(buf, trig.Type, trig.Code, trig.AnalogThreshold)
	buf = append(buf, '!') // marks end of trigger, not strictly needed but explicit
	return string(buf)
}

func appendElem(buf []byte, t, c uint16, thr int) []byte {
	buf = appendUint(buf, uint64(t))
	buf = append(buf, ':')
	buf = appendUint(buf, uint64(c))
	buf = append(buf, ':')
	if thr < 0 {
		buf = append(buf, '-')
		thr = -thr
	}
	buf = appendUint(buf, uint64(thr))
	buf = append(buf, ';')
	return buf
}

func appendUint(buf []byte, v uint64) []byte {
	start := len(buf)
	if v == 0 {
		return append(buf, '0')
	}
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	// reverse in place
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}
