package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

const (
	MsgAllFieldsRequired   = "All fields are required"
	MsgCredentialsRequired = "Email and password required"
	MsgInvalidEmail        = "Invalid email address"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgUserExists          = "User already exists"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUserNotFound        = "User not found"
	MsgRegistered          = "User registered successfully"
	MsgLoggedIn            = "User Login Success"
)

// UserDirectory is the durable user store. Implementations return
// model.ErrUserNotFound on a miss and model.ErrUserAlreadyExists when the
// unique email constraint rejects a create.
type UserDirectory interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, digest string) (bool, error)
}

type tokenIssuer interface {
	Issue(userID string, email string) (model.IssuedToken, error)
}

type AuthService struct {
	users  UserDirectory
	hasher passwordHasher
	tokens tokenIssuer
	// dummyDigest is compared against on unknown emails so both 401 paths cost one hash.
	dummyDigest string
}

func NewAuthService(users UserDirectory, hasher passwordHasher, tokens tokenIssuer) (*AuthService, error) {
	if users == nil || hasher == nil || tokens == nil {
		return nil, errors.New("auth service requires a user directory, hasher and token issuer")
	}

	dummy, err := hasher.Hash("unknown-user-placeholder")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}

	return &AuthService{users: users, hasher: hasher, tokens: tokens, dummyDigest: dummy}, nil
}

func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (model.AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	mobile := strings.TrimSpace(in.Mobile)

	if name == "" || email == "" || mobile == "" || in.Password == "" {
		return model.AuthResult{}, apierror.Validation(MsgAllFieldsRequired)
	}
	if !isEmailAddress(email) {
		return model.AuthResult{}, apierror.Validation(MsgInvalidEmail)
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return model.AuthResult{}, apierror.Conflict(MsgUserExists)
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.AuthResult{}, fmt.Errorf("lookup user by email: %w", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if errors.Is(err, model.ErrPasswordTooLong) {
		return model.AuthResult{}, apierror.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		Name:         name,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: digest,
		Role:         model.RoleUser,
	})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		// Lost the race between the lookup and the insert.
		return model.AuthResult{}, apierror.Conflict(MsgUserExists)
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return model.AuthResult{User: user.Summary(), Token: token, Message: MsgRegistered}, nil
}

func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (model.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return model.AuthResult{}, apierror.Validation(MsgCredentialsRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		_, _ = s.hasher.Verify(in.Password, s.dummyDigest)
		slog.WarnContext(ctx, "login rejected", "reason", "unknown email")
		return model.AuthResult{}, apierror.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("lookup user by email: %w", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		slog.WarnContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return model.AuthResult{}, apierror.Unauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return model.AuthResult{User: user.Summary(), Token: token, Message: MsgLoggedIn}, nil
}

// Profile returns the user behind an already verified token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("lookup user by id: %w", err)
	}

	return user.Public(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isEmailAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
