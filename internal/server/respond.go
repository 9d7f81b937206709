package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/ivfgo"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps database errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ivfgo.ErrDimensionMismatch),
		errors.Is(err, ivfgo.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, ivfgo.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ivfgo.ErrNotBuilt),
		errors.Is(err, ivfgo.ErrInsufficientData):
		return http.StatusConflict
	case errors.Is(err, ivfgo.ErrSnapshotsDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, ivfgo.ErrMemoryLimitExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, ivfgo.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondDBError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	s.respondError(w, r, status, err.Error())
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.respondJSON(w, r, status, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
