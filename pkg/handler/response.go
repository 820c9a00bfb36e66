package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/db"
	"github.com/yumyai/unirefcmp/pkg/model"
	"github.com/yumyai/unirefcmp/pkg/uniprot"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every API endpoint.
type Response struct {
	Status  string      `json:"status"`
	Payload interface{} `json:"payload"`
	Error   string      `json:"error"`
}

// StatusFor maps an error from the mapping client, the comparator or the job
// ledger to an HTTP status.
func StatusFor(err error) int {
	var (
		malformed *uniprot.MalformedResponseError
		fsErr     *uniprot.FilesystemError
	)

	switch {
	case isBadRequest(err), errors.Is(err, model.ErrEmptyIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrJobNotFound):
		return http.StatusNotFound
	case errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.Is(err, uniprot.ErrRetriesExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fsErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Cannot encode response", zap.Error(err))
	}
}

func writeSuccess(w http.ResponseWriter, code int, payload interface{}) {
	writeJSON(w, code, Response{Status: "success", Payload: payload})
}

func writeError(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, Response{Status: "error", Error: err.Error()})
}
