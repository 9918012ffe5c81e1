package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError is the single place where errors become responses. Anything that
// was not classified upstream is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := apierror.As(err)
	if !ok {
		apiErr = classifySentinel(err)
	}

	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err.Error())
	}

	writeJSON(w, apiErr.HTTPStatus, model.ErrorResponse{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

func classifySentinel(err error) *apierror.APIError {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("User not found")
	case errors.Is(err, model.ErrUserAlreadyExists):
		return apierror.Conflict("User already exists")
	case errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenSignature),
		errors.Is(err, model.ErrTokenMalformed):
		return apierror.Unauthorized("Token expired or invalid")
	default:
		return apierror.Internal(err)
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.NotFound("Route not found"))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.New("METHOD_NOT_ALLOWED", "Method not allowed", "", http.StatusMethodNotAllowed))
}
