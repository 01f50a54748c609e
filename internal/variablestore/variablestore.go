// Package variablestore implements the process-shared variable store
// of spec §4.8: macros across all injection processes read and write a
// common key->value mapping through bounded-timeout get/set/clear
// operations.
//
// Grounded on tracker.go's sqlite usage (single-connection *sql.DB,
// busy-timeout pragma, ATTACH-by-file-path pattern for cross-process
// visibility) and on spec §9's guidance to model cross-process shared
// state as "an actor process with a request/response channel and
// bounded timeouts; do not use shared memory". In Go, goroutines within
// one binary already share memory safely, so the actor here exists to
// serialize access to the single sqlite connection (mirroring
// tracker.go's SetMaxOpenConns(1) rationale); cross-*process* sharing
// comes from every inputcore process pointing at the same sqlite file.
package variablestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/victortrac/inputcore/internal/metrics"
)

// DefaultTimeout is the bounded read timeout named in spec §4.8.
const DefaultTimeout = 20 * time.Millisecond

// ErrTimeout is returned by Get when the actor did not respond within
// the timeout; spec §4.8 says get() should return null (nil) and log,
// so callers typically ignore this and treat it as "unset".
var ErrTimeout = errors.New("variablestore: operation timed out")

type opKind int

const (
	opGet opKind = iota
	opSet
	opClear
	opPing
)

type request struct {
	kind  opKind
	key   string
	value any
	reply chan response
}

type response struct {
	value any
	found bool
	err   error
}

// Store is the actor-backed variable store.
type Store struct {
	db      *sql.DB
	reqs    chan request
	done    chan struct{}
}

// Open opens (creating if needed) a sqlite-backed store at path and
// starts its actor goroutine. Multiple Store instances (in the same or
// different OS processes) pointed at the same path share state through
// the file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open variable store %s: %w", path, err)
	}
	// One connection: the actor goroutine is the only caller, same
	// rationale as tracker.go's SetMaxOpenConns(1).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS macro_variables (
			name TEXT PRIMARY KEY,
			value_kind TEXT NOT NULL,
			value_text TEXT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create macro_variables table: %w", err)
	}

	s := &Store{
		db:   db,
		reqs: make(chan request),
		done: make(chan struct{}),
	}
	go s.actor()
	return s, nil
}

// Close stops the actor and closes the underlying connection. Mirrors
// the "destruction sends a stop message" semantics of spec §4.8.
func (s *Store) Close() error {
	close(s.done)
	return s.db.Close()
}

func (s *Store) actor() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.reqs:
			req.reply <- s.handle(req)
		}
	}
}

func (s *Store) handle(req request) response {
	switch req.kind {
	case opPing:
		return response{value: "pong"}
	case opClear:
		_, err := s.db.Exec(`DELETE FROM macro_variables`)
		return response{err: err}
	case opSet:
		kind, text := encode(req.value)
		_, err := s.db.Exec(`
			INSERT INTO macro_variables (name, value_kind, value_text) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET value_kind = excluded.value_kind, value_text = excluded.value_text
		`, req.key, kind, text)
		return response{err: err}
	case opGet:
		var kind, text string
		err := s.db.QueryRow(`SELECT value_kind, value_text FROM macro_variables WHERE name = ?`, req.key).Scan(&kind, &text)
		if errors.Is(err, sql.ErrNoRows) {
			return response{found: false}
		}
		if err != nil {
			return response{err: err}
		}
		return response{value: decode(kind, text), found: true}
	default:
		return response{err: fmt.Errorf("unknown op %d", req.kind)}
	}
}

// dispatch sends a request to the actor and waits up to timeout for a
// reply.
func (s *Store) dispatch(ctx context.Context, req request) response {
	req.reply = make(chan response, 1)
	select {
	case s.reqs <- req:
	case <-ctx.Done():
		return response{err: ErrTimeout}
	}

	select {
	case resp := <-req.reply:
		return resp
	case <-ctx.Done():
		return response{err: ErrTimeout}
	}
}

// Get returns the value stored under name, or nil if unset or if the
// call timed out (spec §4.8: "On timeout, get returns null and logs an
// error").
func (s *Store) Get(name string) any {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	resp := s.dispatch(ctx, request{kind: opGet, key: name})
	metrics.VariableStoreLatency.WithLabelValues("get").Observe(time.Since(start).Seconds())

	if resp.err != nil {
		metrics.VariableStoreTimeouts.Inc()
		return nil
	}
	if !resp.found {
		return nil
	}
	return resp.value
}

// Set writes name=value. Fire-and-forget per spec §7's IPCError policy
// ("set is fire-and-forget"), but we still honor the bounded timeout so
// a wedged actor can't hang a macro task forever.
func (s *Store) Set(name string, value any) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	s.dispatch(ctx, request{kind: opSet, key: name, value: value})
	metrics.VariableStoreLatency.WithLabelValues("set").Observe(time.Since(start).Seconds())
}

// Clear removes every variable.
func (s *Store) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	s.dispatch(ctx, request{kind: opClear})
}

// IsAlive pings the actor and reports whether it replied within
// timeout (or DefaultTimeout if timeout <= 0).
func (s *Store) IsAlive(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp := s.dispatch(ctx, request{kind: opPing})
	return resp.err == nil
}

// encode/decode give us a minimal tagged representation so both
// numbers and strings round-trip without schema migrations; macros
// only ever carry float64, int, string, or bool values. Numbers
// decode as float64.
func encode(v any) (kind, text string) {
	switch val := v.(type) {
	case nil:
		return "null", ""
	case string:
		return "string", val
	case bool:
		if val {
			return "bool", "1"
		}
		return "bool", "0"
	case int:
		return "number", fmt.Sprintf("%d", val)
	case int64:
		return "number", fmt.Sprintf("%d", val)
	case float64:
		return "number", fmt.Sprintf("%g", val)
	default:
		return "string", fmt.Sprintf("%v", val)
	}
}

func decode(kind, text string) any {
	switch kind {
	case "null":
		return nil
	case "string":
		return text
	case "bool":
		return text == "1"
	case "number":
		var f float64
		if _, err := fmt.Sscanf(text, "%g", &f); err != nil {
			return nil
		}
		return f
	default:
		return text
	}
}
