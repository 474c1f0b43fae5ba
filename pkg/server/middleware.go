package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the per-request id on responses.
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// withRequestLogging assigns a request id, stores a request-scoped logger
// in the context and writes one access line per request.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set(RequestIDHeader, requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		method := methodLabel(r.Method)
		httpRequestsTotal.WithLabelValues(method, strconv.Itoa(rec.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())

		var event *zerolog.Event
		if rec.statusCode >= http.StatusInternalServerError {
			event = logger.Error()
		} else {
			event = logger.Info()
		}
		event.Int("status", rec.statusCode).
			Int("bytes", rec.bytes).
			Dur("duration", duration).
			Str("cache", rec.Header().Get(CacheStatusHeader)).
			Msg("Request completed")
	})
}

// withRecovery converts a panic into a 500 carrying the panic text. A
// response that already started is left as is.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := w.(*statusRecorder)
		if !ok {
			rec = &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		}
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				logger := zerolog.Ctx(r.Context())
				if rec.written {
					logger.Error().
						Interface("panic", rv).
						Int("status", rec.statusCode).
						Msg("Recovered from panic after response started")
					return
				}
				logger.Error().
					Interface("panic", rv).
					Msg("Recovered from panic")
				writeMessage(rec, http.StatusInternalServerError, fmt.Sprint(rv))
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// methodLabel keeps metric cardinality bounded for arbitrary methods.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodDelete, http.MethodOptions, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodHead:
		return method
	default:
		return "other"
	}
}
