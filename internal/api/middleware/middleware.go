package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/correlation"
)

// quietPaths are not logged unless they fail.
var quietPaths = map[string]struct{}{
	"/healthz": {},
}

// Logging stores a request scoped logger in the context and logs one line per
// request once the handler returned.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger := log.With().
			Str("correlation_id", correlation.FromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Logger()
		ctx := logger.WithContext(r.Context())

		rw := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		_, quiet := quietPaths[r.URL.Path]
		if (quiet || r.Method == http.MethodOptions) && rw.status < http.StatusBadRequest {
			return
		}

		level := zerolog.InfoLevel
		switch {
		case rw.status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case rw.status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		// handlers add fields like sub and identifier to the context logger
		log.Ctx(ctx).WithLevel(level).
			Int("status", rw.status).
			Int("bytes", rw.written).
			Str("user_agent", r.UserAgent()).
			Dur("duration", time.Since(start)).
			Msg("request.handled")
	})
}

// Recover turns a panicking handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			log.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic.recovered")
			presenter.Error(w, r, "internal error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
