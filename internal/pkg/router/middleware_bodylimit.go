package router

import "net/http"

const defaultMaxBodyBytes int64 = 64 * 1024

func middlewareBodyLimit(limit int64) Middleware {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
