// Package functions hosts the backend notification triggers behind an HTTP
// event intake.
package functions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/duotasks/companiond/api/events"
	"github.com/duotasks/companiond/internal/triggers"
)

// Server receives platform events over HTTP and dispatches them to the
// trigger handlers. Every event is acknowledged with 204 regardless of the
// handler outcome, errors are logged and never propagated back to the
// event source.
type Server struct {
	address  string
	handlers *triggers.Handlers
}

// NewServer returns an event intake server for the given trigger handlers.
func NewServer(address string, handlers *triggers.Handlers) *Server {
	return &Server{
		address:  address,
		handlers: handlers,
	}
}

// Serve starts the event intake server.
func (s *Server) Serve(ctx context.Context) error {
	lc := &net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler: s.router(),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server.Serve(listener)
}

func (s *Server) router() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("/events/object-finalized", intake(func(ctx context.Context, event events.StorageObject) {
		s.handlers.HandleObjectFinalized(ctx, event)
	}))
	router.HandleFunc("/events/position-deleted", intake(func(ctx context.Context, event events.Position) {
		s.handlers.HandlePositionDeleted(ctx, event)
	}))
	router.HandleFunc("/events/task-created", intake(func(ctx context.Context, event events.TaskCreated) {
		s.handlers.HandleTaskCreated(ctx, event)
	}))
	router.HandleFunc("/events/task-written", intake(func(ctx context.Context, event events.TaskWritten) {
		s.handlers.HandleTaskWritten(ctx, event)
	}))

	return router
}

// intake decodes one event payload and hands it to the trigger. The event
// source always gets a 204, a payload that can't be decoded is logged and
// dropped.
func intake[T any](handle func(ctx context.Context, event T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)

			return
		}

		var event T

		err := json.NewDecoder(r.Body).Decode(&event)
		if err != nil {
			slog.Error("Unable to decode event payload", "path", r.URL.Path, "error", err)
		} else {
			handle(r.Context(), event)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
