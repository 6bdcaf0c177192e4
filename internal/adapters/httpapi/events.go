package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/media-cache/internal/logger"
)

// handleEvents streams store events as server-sent events until the client
// disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	controller := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := controller.Flush(); err != nil {
		logger.Warnf(r.Context(), "Streaming is not supported: %v", err)

		return
	}

	events, unsubscribe := s.service.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	fmt.Fprint(w, "event: hello\ndata: {\"status\":\"connected\"}\n\n")
	_ = controller.Flush() //nolint:errcheck // Checked above.

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.baseCtx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		case event, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				logger.Errorf(r.Context(), "Failed to encode event: %v", err)

				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
		}

		if err := controller.Flush(); err != nil {
			return
		}
	}
}
