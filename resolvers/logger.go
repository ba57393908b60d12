package resolvers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogger puts a request scoped logger into the context and logs
// every request once it completes.
func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := l.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(log.WithContext(r.Context()))

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			log.Info().Msgf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
		})
	}
}
