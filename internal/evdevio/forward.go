package evdevio

import "github.com/victortrac/inputcore/internal/model"

// ForwardSink adapts a *Sink to internal/context.ForwardWriter's
// single-event Write(model.InputEvent) shape, used when a Sink is
// registered as a device's forward sink. It writes the raw
// (type, code, value) with no extra Syn() call: the source device's
// own EV_SYN events flow through the same pipeline path as any other
// event and become the barrier once written through here, same as
// event_reader.py's forward() relying on the original event stream's
// own SYN_REPORT frames.
type ForwardSink struct{ *Sink }

func (f ForwardSink) Write(ev model.InputEvent) error {
	return f.Sink.Write(ev.Type, ev.Code, ev.Value)
}

// ForwardCapabilities derives a forward sink's capability set from its
// source device: the source's capabilities minus EV_SYN/EV_FF, minus
// EV_ABS codes that a handler consumes (so the OS doesn't classify the
// synthetic device as a joystick), per spec §9 / §3 "Lifecycles".
func ForwardCapabilities(src *SourceDevice, consumedAbsCodes map[uint16]bool) (Capabilities, error) {
	var caps Capabilities

	for _, t := range src.CapableTypes() {
		switch t {
		case evSyn, 0x15: // EV_SYN, EV_FF
			continue
		case evKey:
			caps.Keys = append(caps.Keys, src.CapableEvents(t)...)
		case evRel:
			caps.Rel = append(caps.Rel, src.CapableEvents(t)...)
		case evAbs:
			for _, code := range src.CapableEvents(t) {
				if consumedAbsCodes[code] {
					continue
				}
				info, err := src.AbsInfo(code)
				if err != nil {
					continue
				}
				caps.Abs = append(caps.Abs, AxisCapability{
					Code: code, Min: info.Min, Max: info.Max, Fuzz: info.Fuzz, Flat: info.Flat,
				})
			}
		}
	}

	return caps, nil
}
