package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-auth-service/internal/model"
)

const DefaultTokenTTL = 24 * time.Hour

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs an HS256 token for the user that expires after the configured TTL.
func (s *TokenService) Issue(userID string, email string) (model.IssuedToken, error) {
	if strings.TrimSpace(userID) == "" {
		return model.IssuedToken{}, errors.New("token subject is required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return model.IssuedToken{Value: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify checks signature and expiry and returns the token subject. Errors are one of
// model.ErrTokenMalformed, model.ErrTokenSignature or model.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string) (model.Subject, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return model.Subject{}, classifyTokenError(err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return model.Subject{}, fmt.Errorf("%w: missing subject or issued-at", model.ErrTokenMalformed)
	}

	return model.Subject{
		UserID:    claims.Subject,
		Email:     claims.Email,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", model.ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
}
