// Package injector implements the per-device Injector supervisor of
// spec §2/§7: grab every source devnode a logical device names, build
// its forward sink, run an EventReader per devnode, and retry a failed
// grab with backoff before giving up with NO_GRAB. Grounded on the
// teacher's hook_linux.go: one goroutine per device, wg.Wait to block
// the supervisor, Stop() closing devices to unblock ReadOne.
package injector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/eventreader"
	"github.com/victortrac/inputcore/internal/evdevio"
	"github.com/victortrac/inputcore/internal/metrics"
	"github.com/victortrac/inputcore/internal/model"
)

// ErrNoGrab is returned when every retry attempt at grabbing a devnode
// has failed (spec §7's "reports NO_GRAB and terminates").
var ErrNoGrab = errors.New("injector: NO_GRAB: exhausted retries grabbing devnode")

// RetryPolicy bounds the backoff loop InjectionError triggers (spec
// §7). Zero value is a single immediate attempt, no retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the teacher's absence of any configurable
// retry knob by picking a conservative, fixed schedule: 5 attempts,
// doubling from 100ms (100ms, 200ms, 400ms, 800ms).
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond}

// Device is one logical device's set of source devnode paths, all
// grabbed and read into the same Context (spec §1: "a logical device
// ... one or more physical devnodes").
//
// OnFirstGrab, if set, is called exactly once per Run, right after the
// device's first devnode is grabbed and before any devnode starts
// reading — the hook compiler.Compile uses to build the handler graph
// against that devnode's real absinfo (spec §4.3's EV_ABS bounds),
// since a preset must be compiled before events can be dispatched.
// Devices with more than one devnode all share the one handler graph
// Ctx; axis bounds come from whichever devnode is listed first.
type Device struct {
	Name        string
	Paths       []string
	Ctx         *icontext.Context
	OnFirstGrab func(primary *evdevio.SourceDevice) error
}

// Injector supervises every configured Device: grabs its devnodes,
// forwards unhandled events to a per-devnode forward sink, and blocks
// in Run until every reader goroutine has exited.
type Injector struct {
	devices []Device
	retry   RetryPolicy

	mu      sync.Mutex
	sources []*evdevio.SourceDevice
	sinks   []*evdevio.Sink
	wg      sync.WaitGroup
}

// New builds an Injector over devices, using policy for grab retries
// (DefaultRetryPolicy if the zero value is passed).
func New(devices []Device, policy RetryPolicy) *Injector {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy
	}
	return &Injector{devices: devices, retry: policy}
}

// Run grabs every device's devnodes and reads from them until ctx is
// canceled or an unrecoverable error occurs. Cancellation closes every
// source device, which unblocks each EventReader's blocking ReadOne
// (hook_linux.go's Stop()-closes-devices pattern, mirrored here via
// context cancellation instead of a package-level Stop function).
func (inj *Injector) Run(ctx context.Context) error {
	for _, dev := range inj.devices {
		for i, path := range dev.Paths {
			source, err := inj.grabWithRetry(ctx, path)
			if err != nil {
				inj.closeAll()
				return fmt.Errorf("device %q: %w", dev.Name, err)
			}

			if i == 0 && dev.OnFirstGrab != nil {
				if err := dev.OnFirstGrab(source); err != nil {
					inj.closeAll()
					return fmt.Errorf("device %q: compiling handler graph: %w", dev.Name, err)
				}
			}

			consumed := consumedAbsCodes(dev.Ctx)
			caps, err := evdevio.ForwardCapabilities(source, consumed)
			if err != nil {
				inj.closeAll()
				return fmt.Errorf("device %q: forward capabilities for %s: %w", dev.Name, path, err)
			}
			sink, err := evdevio.CreateSink(forwardSinkName(dev.Name, path), caps)
			if err != nil {
				inj.closeAll()
				return fmt.Errorf("device %q: create forward sink for %s: %w", dev.Name, path, err)
			}
			forward := evdevio.ForwardSink{Sink: sink}
			dev.Ctx.RegisterForwardSink(source.ID(), forward)

			inj.mu.Lock()
			inj.sources = append(inj.sources, source)
			inj.sinks = append(inj.sinks, sink)
			inj.mu.Unlock()

			metrics.InjectionsActive.Inc()
			reader := eventreader.New(source, forward, dev.Ctx)
			inj.wg.Add(1)
			go func(path string) {
				defer inj.wg.Done()
				defer metrics.InjectionsActive.Dec()
				if err := reader.Run(ctx); err != nil {
					log.Printf("event reader exited: devnode=%s error=%v", path, err)
				}
			}(path)
		}
	}

	watcherDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		inj.closeAll()
		close(watcherDone)
	}()

	inj.wg.Wait()
	<-watcherDone
	return nil
}

// grabWithRetry opens and exclusively grabs path, retrying on failure
// per inj.retry with exponential backoff, per spec §7's InjectionError
// policy. Returns ErrNoGrab after the last attempt fails.
func (inj *Injector) grabWithRetry(ctx context.Context, path string) (*evdevio.SourceDevice, error) {
	delay := inj.retry.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= inj.retry.MaxAttempts; attempt++ {
		source, err := evdevio.Open(path)
		if err == nil {
			if err := source.Grab(); err == nil {
				return source, nil
			} else {
				_ = source.Close()
				lastErr = err
			}
		} else {
			lastErr = err
		}

		log.Printf("grab attempt failed: devnode=%s attempt=%d error=%v", path, attempt, lastErr)
		if attempt == inj.retry.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%w: %s (last error: %v)", ErrNoGrab, path, lastErr)
}

// closeAll ungrabs and closes every source device and destroys every
// forward sink, once, regardless of how many times it's called.
func (inj *Injector) closeAll() {
	inj.mu.Lock()
	sources := inj.sources
	sinks := inj.sinks
	inj.sources = nil
	inj.sinks = nil
	inj.mu.Unlock()

	for _, s := range sources {
		_ = s.Ungrab()
		_ = s.Close()
	}
	for _, s := range sinks {
		_ = s.Close()
	}
}

func forwardSinkName(deviceName, path string) string {
	return fmt.Sprintf("%s-forward-%s", deviceName, path)
}

// consumedAbsCodes reports every EV_ABS code (0 through ABS_MAX, 0x3f)
// that has at least one handler registered in ctx, so
// evdevio.ForwardCapabilities leaves those axes off the forward sink.
// Run calls it after OnFirstGrab has built the handler graph.
func consumedAbsCodes(ctx *icontext.Context) map[uint16]bool {
	consumed := make(map[uint16]bool)
	for code := uint16(0); code <= 0x3f; code++ {
		if len(ctx.CallbacksFor(model.TypeAndCode{Type: model.EvAbs, Code: code})) > 0 {
			consumed[code] = true
		}
	}
	return consumed
}
