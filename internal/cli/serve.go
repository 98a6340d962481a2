package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/fluxgraph/pkg/adapters/http"
)

// ShutdownTimeout bounds how long Serve waits for outstanding requests.
const ShutdownTimeout = 5 * time.Second

// Handler returns the HTTP API of the app.
func (a *App) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithRegistry(a.Registry),
		httpAdapter.WithCompiler(a.Compiler),
		httpAdapter.WithLogger(a.Logger),
	}
	if a.Catalog != nil {
		opts = append(opts, httpAdapter.WithWatcher(a.Catalog))
	}
	if a.Gatherer != nil {
		opts = append(opts, httpAdapter.WithMetrics(a.Gatherer))
	}
	return httpAdapter.NewHandler(a.Sessions, opts...)
}

// Serve runs the HTTP API on addr until an interrupt signal, then shuts down gracefully.
func Serve(app *App, addr string) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if err := WatchCatalog(sigCtx, app); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: app.Handler(),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting fluxgraph server", "addr", srv.Addr, "store", app.Config.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		app.Logger.Info("Start shutdown", "signal", sigCtx.Signal())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("fluxgraph server stopped gracefully")
		return nil
	}
}
