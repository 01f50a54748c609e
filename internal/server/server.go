// Package server exposes the process's prometheus /metrics endpoint.
// Adapted from the teacher's server.Start: same promhttp.Handler()
// wiring, trimmed of the dashboard/videocall routes spec.md's Non-goals
// (GUI, device-status surfaces) exclude.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Start serves /metrics on addr until ctx is canceled, then shuts the
// server down gracefully.
func Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("metrics server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
