package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go-auth-service/internal/model"
)

// Recovery turns a panic into the generic 500 body; the stack goes to the log only.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			slog.ErrorContext(r.Context(), "panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
			writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
				Success: false,
				Code:    "INTERNAL_ERROR",
				Message: "Something went wrong. Please try again later",
			})
		}()

		next.ServeHTTP(w, r)
	})
}
