package evdevio

import (
	"fmt"
	"sync"
)

// Registry is the UInput registry of spec §2: a named set of output
// sinks, each created once at process start with the union of
// capabilities any loaded preset may need, long-lived for the process
// lifetime.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]*Sink
}

// NewRegistry constructs an empty registry. Sinks are added with
// Register once the preset compiler has determined the
// capability union for each sink name (spec §4.3 "Capabilities").
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]*Sink)}
}

// Register creates and stores a sink under name. It is an error to
// register the same name twice.
func (r *Registry) Register(name string, caps Capabilities) (*Sink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sinks[name]; exists {
		return nil, fmt.Errorf("sink %q already registered", name)
	}

	sink, err := CreateSink(name, caps)
	if err != nil {
		return nil, err
	}
	r.sinks[name] = sink
	return sink, nil
}

// Get returns the sink registered under name, or (nil, false).
func (r *Registry) Get(name string) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// CanEmit answers "can sink named name emit (type, code)?" (spec §2).
func (r *Registry) CanEmit(name string, evType, code uint16) bool {
	sink, ok := r.Get(name)
	if !ok {
		return false
	}
	return sink.CanEmit(evType, code)
}

// Write looks up the named sink and writes the event plus a syn
// barrier. Returns an error if the sink is unknown or cannot emit.
func (r *Registry) Write(name string, evType, code uint16, value int32) error {
	sink, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("unknown sink %q", name)
	}
	if !sink.CanEmit(evType, code) {
		return fmt.Errorf("sink %q cannot emit (%d,%d)", name, evType, code)
	}
	if err := sink.Write(evType, code, value); err != nil {
		return err
	}
	return sink.Syn()
}

// CloseAll releases every registered sink, used during process
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, sink := range r.sinks {
		_ = sink.Close()
		delete(r.sinks, name)
	}
}
