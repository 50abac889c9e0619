// Package common defines sentinel errors and small helpers shared across the
// server packages. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Login failures are reported generically so the caller cannot tell
	// which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Identity-variant rejections. They lead to different remediation:
	// log in vs. confirm the email address. Both match ErrorUnauthorized.
	ErrNotLoggedIn         = fmt.Errorf("%w: not logged in", ErrorUnauthorized)
	ErrPendingConfirmation = fmt.Errorf("%w: email confirmation pending", ErrorUnauthorized)

	// Account validation errors.
	ErrNicknameInUse    = errors.New("nickname already in use")
	ErrEmailInUse       = errors.New("email already in use")
	ErrInvalidNickname  = errors.New("invalid nickname")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordWeak     = errors.New("password too weak")
	ErrCodeInvalid      = errors.New("invalid confirmation code")

	// Listing validation errors.
	ErrInvalidListingType = errors.New("invalid listing type")
	ErrInvalidCampus      = errors.New("invalid campus")
	ErrTitleRequired      = errors.New("title is required")
	ErrNoAttachments      = errors.New("at least one attachment is required")

	// Attachment access.
	ErrOwnerNotConfirmed = errors.New("attachment owner is not confirmed")
)
