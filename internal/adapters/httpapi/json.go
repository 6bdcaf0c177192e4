package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oshokin/media-cache/internal/service/media"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // The client may be gone, nothing left to report to.
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrCatalogNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, media.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrOperationInProgress),
		errors.Is(err, media.ErrAlreadyDownloaded),
		errors.Is(err, media.ErrNotDownloaded),
		errors.Is(err, media.ErrNotInProgress):
		return http.StatusConflict
	case errors.Is(err, media.ErrCatalogFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
