package evdevio

import evdev "github.com/holoplot/go-evdev"

// StandardKeyboardCapabilities declares every KEY_* code go-evdev
// knows, the same "can press anything" capability set spec §2's
// keyboard uinput sink needs since a macro's key() task may name any
// key at runtime, not just the ones a preset's mappings reference
// directly.
func StandardKeyboardCapabilities() Capabilities {
	var caps Capabilities
	for code := range evdev.KEYFromString {
		caps.Keys = append(caps.Keys, uint16(code))
	}
	return caps
}

// StandardMouseCapabilities declares the button and relative-axis
// codes the mouse uinput sink needs: left/right/middle/side/extra
// buttons plus X/Y/wheel/hwheel movement (including the hi-res wheel
// codes modern mice and compositors expect).
func StandardMouseCapabilities() Capabilities {
	return Capabilities{
		Keys: []uint16{
			uint16(evdev.BTN_LEFT), uint16(evdev.BTN_RIGHT), uint16(evdev.BTN_MIDDLE),
			uint16(evdev.BTN_SIDE), uint16(evdev.BTN_EXTRA),
		},
		Rel: []uint16{
			uint16(evdev.REL_X), uint16(evdev.REL_Y),
			uint16(evdev.REL_WHEEL), uint16(evdev.REL_HWHEEL),
			uint16(evdev.REL_WHEEL_HI_RES), uint16(evdev.REL_HWHEEL_HI_RES),
		},
	}
}

// MergeCapabilities unions b into a, de-duplicating codes.
func MergeCapabilities(a, b Capabilities) Capabilities {
	seen := make(map[uint16]bool, len(a.Keys))
	for _, k := range a.Keys {
		seen[k] = true
	}
	for _, k := range b.Keys {
		if !seen[k] {
			a.Keys = append(a.Keys, k)
			seen[k] = true
		}
	}

	seenRel := make(map[uint16]bool, len(a.Rel))
	for _, r := range a.Rel {
		seenRel[r] = true
	}
	for _, r := range b.Rel {
		if !seenRel[r] {
			a.Rel = append(a.Rel, r)
			seenRel[r] = true
		}
	}

	seenAbs := make(map[uint16]bool, len(a.Abs))
	for _, ax := range a.Abs {
		seenAbs[ax.Code] = true
	}
	for _, ax := range b.Abs {
		if !seenAbs[ax.Code] {
			a.Abs = append(a.Abs, ax)
			seenAbs[ax.Code] = true
		}
	}

	return a
}
