package user

import (
	"net/mail"
	"strings"
)

// Email 通知收件地址（小写、去空白）
type Email struct {
	value string
}

// NewEmail accepts a bare address only; display names ("Asha <a@b.in>") are
// rejected so the stored value is always sendable as-is.
func NewEmail(email string) (*Email, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return nil, ErrInvalidEmail
	}
	at := strings.LastIndexByte(email, '@')
	if !strings.Contains(email[at+1:], ".") {
		return nil, ErrInvalidEmail
	}

	return &Email{value: email}, nil
}

func (e Email) Value() string { return e.value }

func (e Email) IsZero() bool { return e.value == "" }

func (e Email) Equals(other Email) bool { return e.value == other.value }

// Masked 日志用：a***@example.com
func (e Email) Masked() string {
	at := strings.LastIndexByte(e.value, '@')
	if at < 1 {
		return e.value
	}
	return e.value[:1] + "***" + e.value[at:]
}

func (e Email) String() string { return e.value }
