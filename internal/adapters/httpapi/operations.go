package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
)

// handleStartDownload accepts a download and runs it in the background.
// Obvious rejections are answered at once; the outcome is published on the event stream.
func (s *Server) handleStartDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := s.service.Item(id)
	if err != nil {
		writeServiceError(w, err)

		return
	}

	switch {
	case item.State == media.StateDownloading || item.State == media.StateRemoving:
		writeError(w, http.StatusConflict, media.ErrOperationInProgress.Error())

		return
	case item.Downloaded:
		writeError(w, http.StatusConflict, media.ErrAlreadyDownloaded.Error())

		return
	}

	ctx := logger.WithKV(s.baseCtx, "request_id", middleware.GetReqID(r.Context()))

	s.background.Go(func() {
		s.download(ctx, id)
	})

	writeJSON(w, http.StatusAccepted, item)
}

func (s *Server) download(ctx context.Context, id string) {
	err := s.service.StartDownload(ctx, id)
	if err == nil {
		return
	}

	// A request racing another one is rejected without a notification.
	if media.IsRejected(err) {
		logger.Debugf(ctx, "Download of item %s rejected: %v", id, err)
	}
}

func (s *Server) handleRemoveDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.RemoveDownload(r.Context(), id); err != nil {
		writeServiceError(w, err)

		return
	}

	s.writeItem(w, id)
}

func (s *Server) handleCancelDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.CancelDownload(r.Context(), id); err != nil {
		writeServiceError(w, err)

		return
	}

	s.writeItem(w, id)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.Play(r.Context(), id); err != nil {
		writeServiceError(w, err)

		return
	}

	s.writeItem(w, id)
}

func (s *Server) writeItem(w http.ResponseWriter, id string) {
	item, err := s.service.Item(id)
	if err != nil {
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, item)
}
