package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
)

// Kinds the API reports for failures that do not come from the store.
const (
	KindBadRequest   = "bad_request"
	KindUnauthorized = "unauthorized"
	KindUnavailable  = "unavailable"
)

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind string) int {
	switch kind {
	case manuscript.KindDuplicateID, manuscript.KindIllegalTransition:
		return http.StatusConflict
	case manuscript.KindNotFound:
		return http.StatusNotFound
	case manuscript.KindValidation:
		return http.StatusUnprocessableEntity
	case manuscript.KindPersistence, KindUnavailable:
		return http.StatusServiceUnavailable
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

// writeError renders err using its kind. Internal errors hide their message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := manuscript.KindOf(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}
	var verr *manuscript.ValidationError
	if errors.As(err, &verr) {
		resp.Problems = verr.Problems
	}
	status := StatusForKind(kind)
	log := logging.WithContext(r.Context(), logger)
	switch {
	case status >= http.StatusInternalServerError:
		logging.ErrorWithContext(log, "request failed", "api_request_failed",
			logging.String("route", r.URL.Path),
			logging.String("kind", kind),
			logging.Error(err),
		)
		if kind == manuscript.KindInternal {
			resp.Error = "internal error"
		}
	default:
		log.Debug("request rejected",
			logging.String("route", r.URL.Path),
			logging.String("kind", kind),
			logging.Error(err),
		)
	}
	writeJSON(w, logger, status, resp)
}

func writeProblem(w http.ResponseWriter, logger *slog.Logger, status int, kind, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message, Kind: kind})
}
