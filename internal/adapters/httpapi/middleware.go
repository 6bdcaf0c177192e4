package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/media-cache/internal/logger"
)

// accessLog attaches the request id to the request logger and logs every completed request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithKV(r.Context(), "request_id", middleware.GetReqID(r.Context()))

		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		logger.DebugKV(ctx, "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"size", wrapped.BytesWritten(),
			"duration", time.Since(start),
			"remote_ip", r.RemoteAddr)
	})
}
