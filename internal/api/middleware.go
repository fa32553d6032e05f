package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"interview-insights-go/internal/logger"
)

type ctxKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handle registers h behind request id, scoped logging and metrics.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		reqID := logger.RequestID(r)
		w.Header().Set(logger.RequestIDHeader, reqID)
		reqLog := s.log.WithRequest(r, reqID).With("handler", route)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqLog)))

		reqLog.WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request finished")
		if s.opts.Metrics != nil {
			s.opts.Metrics.HTTPRequest(route, strconv.Itoa(rec.status))
		}
	})
}

func logFromContext(r *http.Request) (*logger.Logger, bool) {
	l, ok := r.Context().Value(ctxKey{}).(*logger.Logger)
	return l, ok
}

// requestLog returns the request-scoped logger, or the server's own outside handle.
func (s *Server) requestLog(r *http.Request) *logger.Logger {
	if l, ok := logFromContext(r); ok {
		return l
	}
	return s.log
}
