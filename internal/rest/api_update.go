package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duotasks/companiond/api"
	"github.com/duotasks/companiond/internal/download"
	"github.com/duotasks/companiond/internal/rest/response"
	"github.com/duotasks/companiond/internal/updater"
)

func (s *Server) apiUpdate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		// Return the current update state and configuration.
		_ = response.SyncResponse(true, s.updater.Update()).Render(w)
	case http.MethodPut:
		// Apply a new update configuration.
		newConfig := &api.Update{}

		err := json.NewDecoder(r.Body).Decode(newConfig)
		if err != nil {
			_ = response.BadRequest(err).Render(w)

			return
		}

		err = newConfig.Config.Validate()
		if err != nil {
			_ = response.BadRequest(err).Render(w)

			return
		}

		// Apply the updated configuration.
		s.state.Update = newConfig.Config

		_ = response.EmptySyncResponse.Render(w)

		_ = s.state.Save()
	default:
		// If none of the supported methods, return NotImplemented.
		_ = response.NotImplemented(nil).Render(w)
	}
}

func (s *Server) apiUpdateCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	// Trigger a manual update check.
	err := s.updater.Check(r.Context(), true)
	if err != nil {
		_ = response.Unavailable(err).Render(w)

		return
	}

	_ = response.SyncResponse(true, s.updater.Update().State).Render(w)
}

func (s *Server) apiUpdateAccept(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	err := s.updater.Accept(r.Context())
	if err != nil {
		if errors.Is(err, updater.ErrNoPendingPrompt) {
			_ = response.BadRequest(err).Render(w)

			return
		}

		if errors.Is(err, download.ErrDownloadActive) {
			_ = response.Conflict(err).Render(w)

			return
		}

		_ = response.InternalError(err).Render(w)

		return
	}

	_ = response.SyncResponse(true, s.updater.Update().State).Render(w)
}

func (s *Server) apiUpdateDefer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	err := s.updater.Defer()
	if err != nil {
		_ = response.BadRequest(err).Render(w)

		return
	}

	_ = response.EmptySyncResponse.Render(w)
}

func (s *Server) apiUpdateDownloadCancel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	err := s.updater.CancelDownload()
	if err != nil {
		_ = response.BadRequest(err).Render(w)

		return
	}

	_ = response.EmptySyncResponse.Render(w)
}
