// Package validation holds the input policies applied by the account
// operations before anything is written.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wesley950/coisando-coisas/internal/common"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 8

// PasswordSymbols is the fixed set of characters that count as a symbol.
const PasswordSymbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

var nicknameRe = regexp.MustCompile(`^[\p{L}\p{N}_.-]{3,30}$`)

// CheckPassword enforces the password policy: at least MinPasswordLength
// characters and at least one lowercase letter, uppercase letter, digit and
// symbol from PasswordSymbols.
//
// Too-short passwords fail with common.ErrPasswordTooShort; anything else
// that misses a class fails with common.ErrPasswordWeak.
func CheckPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return common.ErrPasswordTooShort
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return common.ErrPasswordWeak
	}
	return nil
}

// NormalizeNickname trims surrounding whitespace.
func NormalizeNickname(nickname string) string {
	return strings.TrimSpace(nickname)
}

// CheckNickname accepts 3 to 30 letters, digits, '_', '.' or '-'.
// Nicknames made only of digits are rejected so they never look like ids.
func CheckNickname(nickname string) error {
	if !nicknameRe.MatchString(nickname) {
		return common.ErrInvalidNickname
	}
	if strings.IndexFunc(nickname, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return common.ErrInvalidNickname
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address; emails are stored in
// this form so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckEmail accepts a bare address (no display name).
func CheckEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return common.ErrInvalidEmail
	}
	return nil
}
