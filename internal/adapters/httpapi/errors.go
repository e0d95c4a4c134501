package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details"`
	RequestID nullable.Nullable[string]         `json:"requestId"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	} else {
		er.Error.Details = nullable.NewNullNullable[map[string]any]()
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	} else {
		er.Error.RequestID = nullable.NewNullNullable[string]()
	}
	writeJSON(w, status, er)
}

// writeAppError maps err to a response. Anything that is not an *apperr.Error is a 500.
func writeAppError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	log.Error("request failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.String("requestId", middleware.GetReqID(r.Context())),
		logger.Error(err),
	)
	writeError(w, r, http.StatusInternalServerError, apperr.CodeInternal, "Internal server error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
