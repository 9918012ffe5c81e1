package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

const maxBodyBytes = 1 << 20

type authService interface {
	Register(ctx context.Context, in model.RegisterInput) (model.AuthResult, error)
	Login(ctx context.Context, in model.LoginInput) (model.AuthResult, error)
	Profile(ctx context.Context, userID string) (model.PublicUser, error)
}

type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	service authService
	cookie  CookieOptions
	now     func() time.Time
}

func NewAuthHandler(service authService, cookie CookieOptions) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = 72 * time.Hour
	}
	return &AuthHandler{service: service, cookie: cookie, now: time.Now}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{
		Success: true,
		Message: result.Message,
		User:    result.User,
		Token:   result.Token.Value,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The cookie may outlive the token; an expired token is still rejected on use.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    result.Token.Value,
		Path:     "/",
		Expires:  h.now().Add(h.cookie.TTL),
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, model.AuthResponse{
		Success: true,
		Message: result.Message,
		User:    result.User,
		Token:   result.Token.Value,
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthorized("Unauthorized access"))
		return
	}

	user, err := h.service.Profile(r.Context(), subject.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{Success: true, User: user})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apierror.New("PAYLOAD_TOO_LARGE", "request body too large", "", http.StatusRequestEntityTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return apierror.Validation("request body is required")
		}
		return apierror.Validation("invalid JSON body")
	}

	return nil
}
