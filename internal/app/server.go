package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/pkg/router"
)

type healthResponse struct {
	Status  string            `json:"status"`
	Store   string            `json:"store"`
	Details map[string]string `json:"details,omitempty"`
}

func (healthResponse) Message() string { return "ok" }

// health reports whether the backing resources answer a ping.
func (a *App) health(r *router.Request) (any, error) {
	ctx := r.Context()
	resp := healthResponse{Status: "up", Store: a.storeDriver(), Details: map[string]string{}}

	check := func(name string, fn func(ctx context.Context) error) {
		if err := fn(ctx); err != nil {
			resp.Status = "degraded"
			resp.Details[name] = err.Error()
			return
		}
		resp.Details[name] = "up"
	}

	if a.dbConn != nil {
		check("postgres", a.dbConn.Ping)
	}
	if a.cacheConn != nil {
		check("redis", func(ctx context.Context) error { return a.cacheConn.Ping(ctx).Err() })
	}
	if a.mongoClient != nil {
		check("mongo", func(ctx context.Context) error { return a.mongoClient.Ping(ctx, nil) })
	}
	if stats, ok := a.store.(store.SweepStats); ok {
		resp.Details["sweep_reaped"] = strconv.FormatInt(stats.Reaped(), 10)
		if last := stats.LastSweep(); !last.IsZero() {
			resp.Details["sweep_last_cutoff"] = last.UTC().Format(time.RFC3339)
		}
	}

	return resp, nil
}

// Start launches the HTTP server and returns a channel closed on shutdown.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint

		if a.cancel != nil {
			a.cancel()
		}

		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener for tests.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop gracefully shuts down the server and closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}
	slog.InfoContext(ctx, "all goroutines have finished successfully")

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
