package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for every authentication failure:
	// unknown email, missing stored hash, password mismatch, storage error.
	// Callers cannot distinguish the cases.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken indicates the session token failed validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")
)
