// Package panicwatch implements the panic-codeword watchdog of spec
// §7: type "inputremapperpanicquit" on any grabbed device and the
// injector tears itself down even if its own UI/control plane has
// wedged. Grounded on original_source's
// injection/panic_counter.py (PanicCounter): a sequential key-code
// matcher fed every EV_KEY press, escalating through a graceful
// shutdown hook, then SIGTERM, then SIGKILL if the process is still
// alive a second later.
package panicwatch

import (
	"log"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// PanicWord is the fixed codeword panic_counter.py matches against.
const PanicWord = "inputremapperpanicquit"

// GracePeriod is how long Watcher waits after each escalation step
// before trying the next one, mirroring panic_counter.py's two
// `asyncio.sleep(1)` calls.
const GracePeriod = time.Second

// Watcher matches a sequence of EV_KEY presses against PanicWord and
// triggers a graceful-then-forceful shutdown on a full match.
type Watcher struct {
	codes []uint16

	// Shutdown is called once, in its own goroutine, the moment the
	// codeword completes. It should ask the injector to stop
	// cleanly (cancel its root context); nil is allowed and just
	// skips straight to the forceful signals below.
	Shutdown func()

	mu       sync.Mutex
	progress int
}

// New resolves PanicWord's letters to key codes via layout, falling
// back to a "KEY_<letter>" spelling for any letter not found bare
// (panic_counter.py's _get_panic_word_codes does the same two-step
// lookup). Returns an error if any letter resolves neither way.
func New(layout *keyboardlayout.Layout) (*Watcher, error) {
	codes := make([]uint16, 0, len(PanicWord))
	for _, r := range PanicWord {
		letter := string(r)
		code, ok := layout.Get(letter)
		if !ok {
			code, ok = layout.Get("key_" + letter)
		}
		if !ok {
			return nil, errUnresolvedLetter(letter)
		}
		codes = append(codes, uint16(code))
	}
	return &Watcher{codes: codes}, nil
}

type errUnresolvedLetter string

func (e errUnresolvedLetter) Error() string {
	return "panicwatch: no key code for codeword letter " + string(e)
}

// Track feeds ev into the codeword matcher. It is shaped as a
// macro.ListenerFunc (ev model.InputEvent) bool so it can be
// registered directly via Context.AddListener; it never suppresses
// events, so the returned bool is always false.
func (w *Watcher) Track(ev model.InputEvent) bool {
	if ev.Type != model.EvKey || ev.Value != 1 {
		return false
	}

	w.mu.Lock()
	if ev.Code == w.codes[w.progress] {
		w.progress++
	} else if ev.Code == w.codes[0] {
		w.progress = 1
	} else {
		w.progress = 0
	}
	progress := w.progress
	complete := progress == len(w.codes)
	if complete {
		w.progress = 0
	}
	w.mu.Unlock()

	metrics.PanicProgress.Set(float64(progress))
	if complete {
		go w.trigger()
	}
	return false
}

// trigger runs the escalating shutdown sequence. It never returns
// early: every step fires in order even if an earlier one already
// looks like it should have been enough, matching panic_counter.py's
// finally-guaranteed pkill -9 as the last resort.
func (w *Watcher) trigger() {
	log.Printf("panic codeword matched, shutting down")

	if w.Shutdown != nil {
		w.Shutdown()
	}

	time.Sleep(GracePeriod)
	log.Printf("still running after graceful shutdown request, sending SIGTERM")
	_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)

	time.Sleep(GracePeriod)
	log.Printf("still running after SIGTERM, sending SIGKILL")
	_ = syscall.Kill(os.Getpid(), syscall.SIGKILL)
}
