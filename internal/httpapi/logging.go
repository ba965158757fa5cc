package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// zlog is an optional structured logger. If unset, falls back to the global
// zerolog logger.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logEvent() *zerolog.Event {
	if zlog != nil {
		return zlog.Error()
	}
	return log.Error()
}

func logInfo() *zerolog.Event {
	if zlog != nil {
		return zlog.Info()
	}
	return log.Info()
}

func logDebug() *zerolog.Event {
	if zlog != nil {
		return zlog.Debug()
	}
	return log.Debug()
}

// requestLogger emits one debug line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(sr, r)
		z := logDebug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.status).
			Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("request")
	})
}

// logRequestError records a failed service operation with its mapped status.
func logRequestError(r *http.Request, op string, status int, dur time.Duration, err error) {
	z := logInfo().
		Str("op", op).
		Int("status", status).
		Dur("dur", dur).
		Err(err)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(op + " end")
}
