package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/billease/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 envelope. Aborted
// handlers keep panicking so net/http can drop the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			ctx := r.Context()
			if paths := stacktrace.Internal(1); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic on the server", "because", rvr, "method", r.Method, "path", r.URL.Path, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic on the server", "because", rvr, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
