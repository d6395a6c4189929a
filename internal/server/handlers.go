package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/robbyt/go-jsgate"
	"github.com/robbyt/go-jsgate/internal/metrics"
)

const (
	headerKind = "X-Evaluation-Kind"
	headerID   = "X-Evaluation-ID"

	contentTypeJSON = "application/json"
)

// HTTP-layer kinds for requests that never reach the gateway.
const (
	kindSaturated       = "saturated"
	kindPayloadTooLarge = "payload_too_large"
	kindBadRequest      = "bad_request"
)

// StatusFor maps an evaluation kind to its HTTP status.
func StatusFor(kind jsgate.Kind) int {
	switch kind {
	case jsgate.KindOK:
		return http.StatusOK
	case jsgate.KindParseError, jsgate.KindBindingError, jsgate.KindInvalidName:
		return http.StatusBadRequest
	case jsgate.KindCompileFailure, jsgate.KindRuntimeFailure, jsgate.KindUnsupportedResultType:
		return http.StatusUnprocessableEntity
	case jsgate.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithGroup("handleEvaluate")

	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if current > int32(s.cfg.MaxConcurrent) {
		s.metrics.Reject(metrics.ReasonSaturated)
		writeRejection(w, http.StatusTooManyRequests, kindSaturated,
			fmt.Sprintf("at capacity (%d/%d concurrent evaluations)", current, s.cfg.MaxConcurrent))
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.Reject(metrics.ReasonTooLarge)
			writeRejection(w, http.StatusRequestEntityTooLarge, kindPayloadTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeRejection(w, http.StatusBadRequest, kindBadRequest, "failed to read request body: "+err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.InFlight.Inc()
		defer s.metrics.InFlight.Dec()
	}

	res := s.gateway.Evaluate(r.Context(), raw)
	s.metrics.ObserveEvaluation(string(res.Kind), res.ExecTime)

	status := StatusFor(res.Kind)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "evaluation failed", "kind", res.Kind, "error", res.Err, "id", res.ID)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set(headerKind, string(res.Kind))
	if res.ID != "" {
		w.Header().Set(headerID, res.ID)
	}
	w.WriteHeader(status)
	if _, err := w.Write(res.Body); err != nil {
		logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"in_flight": s.inFlight.Load(),
	})
}

func writeRejection(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set(headerKind, kind)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
