package domain

import "errors"

// Domain failures are sentinel values so the boundary layer can translate
// them to structured responses with errors.Is.
var (
	// Validation.
	ErrMissingFields   = errors.New("required fields are missing")
	ErrUnknownProvider = errors.New("unknown identity provider")

	// Lookup.
	ErrUserNotFound = errors.New("user not found")

	// Conflict.
	ErrEmailTaken   = errors.New("email is already registered")
	ErrTokenRevoked = errors.New("token is already revoked")

	// Unauthorized.
	ErrNoToken           = errors.New("no token provided")
	ErrTokenInvalid      = errors.New("token is invalid or expired")
	ErrNotVerified       = errors.New("email address is not verified")
	ErrWrongPassword     = errors.New("wrong password")
	ErrCodeInvalid       = errors.New("verification code is invalid or expired")
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

	// Dependency failure.
	ErrEmailDelivery = errors.New("verification email could not be sent")
)
