// Package eventreader implements spec §4.1's per-device event pipeline:
// read one raw event at a time, drop auto-repeats, broadcast to
// listeners, dispatch to the handler graph, and forward whatever no
// handler claimed.
//
// Grounded on original_source/inputremapper/injection/event_reader.py's
// EventReader (handle/send_to_listeners/send_to_handlers/forward) and
// the stop-by-closing-the-device shape of hook_linux.go's readLoop
// (Start/Stop/wg.Wait), adapted from asyncio's reader loop to a plain
// blocking read unblocked by the source device's Close.
package eventreader

import (
	"context"
	"fmt"

	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/evdevio"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// EventReader reads from one source devnode and distributes events to
// one Context's listeners and handler graph, forwarding whatever
// nothing claimed to Forward.
type EventReader struct {
	Source  *evdevio.SourceDevice
	Forward icontext.ForwardWriter
	Ctx     *icontext.Context
}

func New(source *evdevio.SourceDevice, forward icontext.ForwardWriter, ctx *icontext.Context) *EventReader {
	return &EventReader{Source: source, Forward: forward, Ctx: ctx}
}

// Run reads events until Source errors (closed) or ctx is canceled,
// whichever comes first; on cancellation it closes Source itself to
// unblock the pending ReadOne, the same way hook_linux.go's Stop()
// does. On exit it resets every handler (event_reader.py's
// "self.context.reset()" after the read loop ends).
func (r *EventReader) Run(ctx context.Context) error {
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = r.Source.Close()
		case <-stopWatch:
		}
	}()

	defer r.Ctx.Reset()

	for {
		ev, err := r.Source.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading from %s: %w", r.Source.Path(), err)
		}

		metrics.EventsRead.WithLabelValues(r.Source.Path()).Inc()

		if err := r.handle(ev); err != nil {
			return err
		}
	}
}

// handle is event_reader.py's handle(): drop auto-repeats, let EV_SYN
// and EV_MSC pass straight through (neither listeners nor handlers
// ever act on them), broadcast to listeners (spec §4.7's
// if_single/mod_tap hook — a listener that suppresses stops the event
// here entirely, a SPEC_FULL.md-specific addition event_reader.py
// doesn't have since its listeners never influence forwarding), then
// dispatch to the handler graph and forward anything unclaimed.
func (r *EventReader) handle(ev model.InputEvent) error {
	if ev.IsKeyRepeat() {
		return nil
	}

	if ev.Type == model.EvSyn || ev.Type == model.EvMsc {
		return r.Forward.Write(ev)
	}

	if r.Ctx.Broadcast(ev) {
		return nil
	}

	handled, err := r.dispatch(ev)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	metrics.EventsForwarded.WithLabelValues(r.Source.Path()).Inc()
	return r.Forward.Write(ev)
}

func (r *EventReader) dispatch(ev model.InputEvent) (bool, error) {
	handled := false
	for _, cb := range r.Ctx.CallbacksFor(ev.TypeAndCode()) {
		ok, err := cb.Notify(ev, false)
		if err != nil {
			return handled, err
		}
		if ok {
			handled = true
		}
	}
	return handled, nil
}
