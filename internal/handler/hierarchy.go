package handler

import (
	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/model"
)

// HierarchyHandler groups several handlers registered under the same
// key, ordered most-specific first by the compiler: the first one that
// reports it handled the event wins, and the rest are still notified
// with suppressed=true (fire-and-forget, their result discarded) so
// their own internal state stays consistent, but they are forbidden
// from performing their real output write. Grounded on
// mapping_handler.py's HierarchyHandler, whose docstring is this
// package's docstring almost verbatim, and whose losers are notified
// with supress=True rather than simply ignored.
type HierarchyHandler struct {
	Handlers []icontext.Handler
}

func (h *HierarchyHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	if suppressed {
		for _, sub := range h.Handlers {
			go func(s icontext.Handler) {
				_, _ = s.Notify(ev, true)
			}(sub)
		}
		return false, nil
	}

	success := false
	var firstErr error

	for _, sub := range h.Handlers {
		if !success {
			ok, err := sub.Notify(ev, false)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			success = ok
			continue
		}
		go func(s icontext.Handler) {
			_, _ = s.Notify(ev, true)
		}(sub)
	}

	return success, firstErr
}

func (h *HierarchyHandler) Reset() {
	for _, sub := range h.Handlers {
		sub.Reset()
	}
}
