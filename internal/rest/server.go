// Package rest implements the REST API served by companiond over its local
// unix socket.
package rest

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/duotasks/companiond/internal/state"
	"github.com/duotasks/companiond/internal/updater"
)

// Server holds the internal state of the REST API server.
type Server struct {
	socketPath string
	state      *state.State
	updater    *updater.Updater
}

// NewServer returns a REST API server object.
func NewServer(_ context.Context, s *state.State, u *updater.Updater, socketPath string) (*Server, error) {
	// Define the struct.
	server := Server{
		socketPath: socketPath,
		state:      s,
		updater:    u,
	}

	// Create runtime path if missing.
	err := os.Mkdir(filepath.Dir(socketPath), 0o700)
	if err != nil && !os.IsExist(err) {
		return nil, err
	}

	return &server, nil
}

// Serve starts the REST API server.
func (s *Server) Serve(ctx context.Context) error {
	// Setup listener.
	_ = os.Remove(s.socketPath)
	lc := &net.ListenConfig{}

	listener, err := lc.Listen(ctx, "unix", s.socketPath)
	if err != nil {
		return err
	}

	// Setup routing.
	router := http.NewServeMux()

	router.HandleFunc("/", s.apiRoot)
	router.HandleFunc("/1.0", s.apiRoot10)
	router.HandleFunc("/1.0/update", s.apiUpdate)
	router.HandleFunc("/1.0/update/:accept", s.apiUpdateAccept)
	router.HandleFunc("/1.0/update/:check", s.apiUpdateCheck)
	router.HandleFunc("/1.0/update/:defer", s.apiUpdateDefer)
	router.HandleFunc("/1.0/update/download/:cancel", s.apiUpdateDownloadCancel)

	// Setup server.
	server := &http.Server{
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
	}

	return server.Serve(listener)
}
