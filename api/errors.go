package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
)

const FallbackMessage = contractx.FallbackMessage

const (
	CodeUnknownContext  = "unknown_context"
	CodeInvalidRequest  = "invalid_request"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeToolError       = "tool_error"
	CodeConflict        = "conflict"
	CodeModelError      = "model_error"
	CodeToolExecution   = "tool_execution_error"
	CodeTimeout         = "timeout"
	CodeRateLimited     = "rate_limited"
	CodeAuthUnavailable = "auth_unavailable"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal_error"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// classify maps an error chain to a status and code. Order matters: a model
// timeout matches both ErrModelInvoke and context.DeadlineExceeded.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, contractx.ErrUnknownContext):
		return http.StatusBadRequest, CodeUnknownContext
	case errors.Is(err, contractx.ErrInvalidMessage):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, contractx.ErrUnauthorized):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, contractx.ErrToolNotFound), errors.Is(err, contractx.ErrToolArguments):
		return http.StatusUnprocessableEntity, CodeToolError
	case errors.Is(err, datastore.ErrStatusConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, contractx.ErrModelInvoke), errors.Is(err, contractx.ErrSchemaViolation):
		return http.StatusBadGateway, CodeModelError
	case errors.Is(err, contractx.ErrToolExecution):
		return http.StatusInternalServerError, CodeToolExecution
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, code string) {
	jsonResponse(w, status, errorBody{Error: errorDetail{Code: code, Message: FallbackMessage}})
}

// writeError logs the cause and answers with the fixed fallback message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("code", code).Msg("request failed")
	jsonError(w, status, code)
}
