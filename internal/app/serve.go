package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/media-cache/internal/adapters/httpapi"
	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
)

const (
	// readHeaderTimeout bounds the time to read request headers.
	readHeaderTimeout = 10 * time.Second
	// shutdownTimeout bounds the graceful shutdown of the HTTP server.
	shutdownTimeout = 15 * time.Second
)

// ExecuteServeCommand runs the local HTTP API until ctx is canceled.
// A failed initial catalog load is not fatal: clients can reload later.
func ExecuteServeCommand(ctx context.Context, cfg *config.Config) {
	service, err := newService(cfg)
	if err != nil {
		logger.Fatalf(ctx, "%v", err)
	}

	defer finish(ctx, service)

	if _, err = service.Load(ctx); err != nil {
		logger.Warnf(ctx, "Initial catalog load failed, use POST /api/v1/catalog/reload to retry: %v", err)
	}

	if err = serve(ctx, cfg.ListenAddress, service); err != nil {
		logger.Errorf(ctx, "HTTP server stopped: %v", err)
	}
}

// serve runs the HTTP server until ctx is canceled, then shuts it down and
// waits for the downloads it started.
func serve(ctx context.Context, address string, service media.Service) error {
	api := httpapi.NewServer(ctx, service)

	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	httpServer := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof(ctx, "Listening on http://%s", listener.Addr())

		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)

		api.Wait()
		logger.Info(ctx, "HTTP server stopped")

		return shutdownErr
	})

	return group.Wait()
}
