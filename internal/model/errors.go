package model

import "errors"

var (
	// User directory errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Credential errors
	ErrMalformedDigest = errors.New("malformed password digest")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

	// Token errors
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)
