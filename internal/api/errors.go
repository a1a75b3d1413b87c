package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/logging"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-checkable kind and a readable message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func statusFor(kind ledgererror.Kind) int {
	switch kind {
	case ledgererror.KindValidation:
		return http.StatusBadRequest
	case ledgererror.KindResolution:
		return http.StatusUnprocessableEntity
	case ledgererror.KindConflict:
		return http.StatusConflict
	case ledgererror.KindUpstreamDegraded:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeJSONError(w, http.StatusGatewayTimeout, ledgererror.KindUpstreamDegraded, "request timed out")
		return
	}

	kind := ledgererror.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	path := logging.Field{Key: logging.FieldPath, Value: r.URL.Path}
	switch {
	case ledgererror.IsUserCorrectable(err):
		h.logger.Debug("Request rejected", path, logging.Field{Key: logging.FieldReason, Value: message})
	case status == http.StatusInternalServerError:
		h.logger.WithError(err).Error("Request failed", path)
		message = "internal error"
	default:
		h.logger.WithError(err).Warn("Request degraded", path)
	}
	writeJSONError(w, status, kind, message)
}

func writeJSONError(w http.ResponseWriter, status int, kind ledgererror.Kind, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Kind: string(kind), Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
