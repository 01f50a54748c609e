package axis

import (
	"context"
	"math"
	"sync"
)

// AbsToRel converts a continuous absolute axis (a joystick/trigger
// reporting position) into a stream of relative deltas at a fixed
// rate, e.g. for scrolling or mouse-look with an analog stick. Mirrors
// mapping_handler.py's AbsToRelHandler: normalize -> deadzone check ->
// cubic expo -> gain, with the result driving a drift-corrected rate
// loop until the axis returns to the deadzone.
type AbsToRel struct {
	Deadzone float64 // in [0,1] normalized units
	Expo     float64 // cubic shaping coefficient, [-1,1]
	Gain     float64 // output units per tick per normalized unit
	RateHz   float64

	mu        sync.Mutex
	lastValue float64
	active    bool
}

// Feed reports a new raw EV_ABS reading. It returns true the first
// time the axis leaves the deadzone (the handler should start Run in
// that case) and false otherwise (either already running, or the axis
// re-entered the deadzone and the handler should call Stop).
func (a *AbsToRel) Feed(rawValue, absMin, absMax int32) (shouldStart, inDeadzone bool, err error) {
	normalized, _ := Normalize(rawValue, absMin, absMax)
	if InDeadzone(normalized, a.Deadzone) {
		return false, true, nil
	}

	shaped, err := CubicExpo(normalized, a.Expo)
	if err != nil {
		return false, false, err
	}

	a.mu.Lock()
	a.lastValue = shaped * a.Gain
	wasActive := a.active
	a.active = true
	a.mu.Unlock()

	return !wasActive, false, nil
}

// Stop marks the loop inactive; the next Feed past the deadzone starts
// it again.
func (a *AbsToRel) Stop() {
	a.mu.Lock()
	a.active = false
	a.mu.Unlock()
}

// Run drives write(delta) at RateHz until ctx is canceled or Stop is
// called, accumulating the fractional remainder between ticks so slow
// gains still produce motion over time instead of always rounding to
// zero.
func (a *AbsToRel) Run(ctx context.Context, write func(delta int32)) error {
	remainder := 0.0
	return RunPaced(ctx, a.RateHz, func() bool {
		a.mu.Lock()
		active := a.active
		value := a.lastValue
		a.mu.Unlock()
		if !active {
			return false
		}

		floatValue := value + remainder
		remainder = math.Mod(floatValue, 1)
		write(int32(floatValue))
		return true
	})
}

// RelToRel rescales a stream of discrete relative deltas by Gain,
// accumulating the fractional remainder so fractional gains (e.g.
// 0.5x sensitivity) still move the pointer over several events instead
// of truncating to zero every time.
type RelToRel struct {
	Gain float64

	mu        sync.Mutex
	remainder float64
}

// Convert scales one incoming delta.
func (r *RelToRel) Convert(rawDelta int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	scaled := float64(rawDelta)*r.Gain + r.remainder
	r.remainder = math.Mod(scaled, 1)
	return int32(scaled)
}

// AbsToAbs remaps one absolute axis range onto another, applying the
// same cubic expo shaping AbsToRel uses, but writing instantaneously
// rather than through a rate loop — the output is a position, not a
// velocity.
type AbsToAbs struct {
	Expo float64
}

// Convert maps rawValue from [srcMin, srcMax] through expo shaping into
// [outMin, outMax].
func (a *AbsToAbs) Convert(rawValue, srcMin, srcMax, outMin, outMax int32) (int32, error) {
	normalized, _ := Normalize(rawValue, srcMin, srcMax)
	shaped, err := CubicExpo(normalized, a.Expo)
	if err != nil {
		return 0, err
	}
	outHalfRange := float64(outMax-outMin) / 2
	outMiddle := outHalfRange + float64(outMin)
	return int32(shaped*outHalfRange + outMiddle), nil
}

// RelToAbs turns relative motion (mouse movement, wheel ticks) into an
// absolute stick-like position: every delta nudges the position by
// Gain, and the position decays back toward the center at DecayPerTick
// each rate-loop tick so releasing the input recenters the axis
// instead of leaving it pinned, supplementing spec §4.6's transducer
// set with the rel->abs direction (no direct mapping_handler.py
// analogue). Each delta is scaled by Gain only; no normalization or
// expo shaping is applied to the input. The position feeds a
// drift-corrected rate loop like AbsToRel's.
type RelToAbs struct {
	Gain         float64
	DecayPerTick float64 // fraction of distance-to-center removed each tick, [0,1]
	RateHz       float64
	OutMin       int32
	OutMax       int32

	mu       sync.Mutex
	position float64 // normalized [-1,1]
	active   bool
}

// Feed applies one relative delta to the accumulated position,
// clamping to [-1,1], and reports whether the rate loop should start.
func (r *RelToAbs) Feed(rawDelta int32) (shouldStart bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.position += float64(rawDelta) * r.Gain
	if r.position > 1 {
		r.position = 1
	}
	if r.position < -1 {
		r.position = -1
	}

	wasActive := r.active
	r.active = true
	return !wasActive
}

// Stop halts the decay/write loop.
func (r *RelToAbs) Stop() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

// Run writes the current absolute position at RateHz, decaying it
// toward zero each tick, until ctx is canceled or the position settles
// at the center and Stop is called by the caller.
func (r *RelToAbs) Run(ctx context.Context, write func(value int32)) error {
	halfRange := float64(r.OutMax-r.OutMin) / 2
	middle := halfRange + float64(r.OutMin)

	return RunPaced(ctx, r.RateHz, func() bool {
		r.mu.Lock()
		if !r.active {
			r.mu.Unlock()
			return false
		}
		r.position -= r.position * r.DecayPerTick
		pos := r.position
		r.mu.Unlock()

		write(int32(pos*halfRange + middle))
		return true
	})
}

// AbsToBtn turns a continuous absolute axis into a momentary button:
// pressed whenever the normalized value's magnitude crosses Threshold
// in the configured Sign direction (positive threshold watches the
// positive excursion, negative watches the negative one).
type AbsToBtn struct {
	Threshold float64 // signed normalized threshold, e.g. 0.5 or -0.5
}

// Evaluate reports whether rawValue currently satisfies the threshold.
func (a *AbsToBtn) Evaluate(rawValue, absMin, absMax int32) bool {
	normalized, _ := Normalize(rawValue, absMin, absMax)
	if a.Threshold >= 0 {
		return normalized >= a.Threshold
	}
	return normalized <= a.Threshold
}

// RelToBtn turns discrete relative deltas (e.g. wheel ticks) into a
// momentary button press; the handler that owns this evaluates it per
// event and is responsible for scheduling the release-after-timeout
// named in spec §4.6 (a rel axis has no "released" state of its own).
type RelToBtn struct {
	Threshold int32 // signed; magnitude and direction both matter
}

// Evaluate reports whether rawDelta should be treated as a press.
func (r *RelToBtn) Evaluate(rawDelta int32) bool {
	if r.Threshold >= 0 {
		return rawDelta >= r.Threshold
	}
	return rawDelta <= r.Threshold
}
