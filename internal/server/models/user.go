// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"
)

// Status is the account state. The only transition performed by the
// application is PENDING -> CONFIRMED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDisabled  Status = "DISABLED"
)

// ParseStatus validates a stored status token.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusDisabled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

type User struct {
	ID           string
	Nickname     string
	Email        string
	PasswordHash string
	// AvatarSeed derives the generated avatar image.
	AvatarSeed string
	Status     Status
	CreatedAt  time.Time
}

// ConfirmationCode is a one-time token proving control of the email
// address given at registration.
type ConfirmationCode struct {
	Code      string
	UserID    string
	CreatedAt time.Time
}
