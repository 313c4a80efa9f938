package rest

import (
	"net/http"

	"github.com/duotasks/companiond/api"
	"github.com/duotasks/companiond/internal/rest/response"
	"github.com/duotasks/companiond/internal/version"
)

func (*Server) apiRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != "/" {
		_ = response.NotFound(nil).Render(w)

		return
	}

	_ = response.SyncResponse(true, []string{"/1.0"}).Render(w)
}

func (s *Server) apiRoot10(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := api.Daemon{
		Name:       "companiond",
		Version:    version.Version,
		APIVersion: version.APIVersion,
	}

	_ = response.SyncResponse(true, resp).Render(w)
}
