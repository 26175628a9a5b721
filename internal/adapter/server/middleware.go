package server

import (
	"net/http"
	"time"

	"orderflow/internal/core/domain/types"
)

type responseWriterWrapper struct {
	http.ResponseWriter
	status int
}

func (w *responseWriterWrapper) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (a *API) Middleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		rw := &responseWriterWrapper{ResponseWriter: w, status: http.StatusOK}

		a.log.Debug(
			r.Context(),
			types.ActionRequestReceived,
			"started",
			"method", r.Method,
			"URL", r.URL.Path,
			"host", r.Host,
		)

		next.ServeHTTP(rw, r)

		duration := time.Since(startTime)

		a.log.Debug(
			r.Context(),
			types.ActionRequestReceived,
			"completed",
			"method", r.Method,
			"URL", r.URL.Path,
			"status", rw.status,
			"duration", duration,
		)
	})
}
