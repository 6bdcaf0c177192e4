package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oshokin/media-cache/internal/service/media"
	"github.com/oshokin/media-cache/internal/version"
)

// itemsResponse lists the catalog together with the live transfer progress.
type itemsResponse struct {
	Items []media.Item `json:"items"`
}

// versionResponse describes the running build.
type versionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildTime: version.BuildTime,
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Statistics())
}

// handleReload fetches the catalog again. The load runs under the server context,
// so a client hanging up does not abort a load other callers share.
func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	items, err := s.service.Load(s.baseCtx)
	if err != nil {
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	items := s.service.Items()
	if items == nil {
		items = []media.Item{}
	}

	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.Item(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, item)
}
