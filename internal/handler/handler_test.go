package handler

import (
	"errors"
	"sync"
	"testing"

	"github.com/victortrac/inputcore/internal/model"
)

// fakeWriter records every Write/Syn call for assertions. Guarded by a
// mutex since AbsToRelHandler's rate loop writes from its own goroutine.
type fakeWriter struct {
	mu     sync.Mutex
	events []model.TypeAndCode
	values []int32
	syns   int
	err    error
}

func (f *fakeWriter) Write(evType, code uint16, value int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, model.TypeAndCode{Type: evType, Code: code})
	f.values = append(f.values, value)
	return nil
}

func (f *fakeWriter) Syn() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syns++
	return nil
}

func (f *fakeWriter) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeHandler records every Notify/Reset call, optionally always
// consuming (or not) and always returning errTo simulate failures.
type fakeHandler struct {
	notified   []model.InputEvent
	suppressed []bool
	consume    bool
	err        error
	resets     int
}

func (f *fakeHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	f.notified = append(f.notified, ev)
	f.suppressed = append(f.suppressed, suppressed)
	if f.err != nil {
		return false, f.err
	}
	if suppressed {
		return false, nil
	}
	return f.consume, nil
}

func (f *fakeHandler) Reset() {
	f.resets++
}

var errBoom = errors.New("boom")
