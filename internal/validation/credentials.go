package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 6
	// MaxPasswordBytes предел bcrypt: длиннее он не хеширует
	MaxPasswordBytes = 72
	// MaxEmailLen максимальная длина email (RFC 5321)
	MaxEmailLen = 320
)

// ValidateEmail проверяет, что email не пустой после trim
// Формат адреса не проверяется: identity строится из нормализованной строки как есть
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FieldError{Field: "email", Reason: "email is required"}
	}

	if len(email) > MaxEmailLen {
		return &FieldError{Field: "email", Reason: fmt.Sprintf("email must not exceed %d characters", MaxEmailLen)}
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
// Минимум 6 символов (не байт), максимум 72 байта
func ValidatePassword(password string) error {
	if password == "" {
		return &FieldError{Field: "password", Reason: "password is required"}
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return &FieldError{Field: "password", Reason: fmt.Sprintf("password must be at least %d characters long", MinPasswordLen)}
	}

	if len(password) > MaxPasswordBytes {
		return &FieldError{Field: "password", Reason: fmt.Sprintf("password must not exceed %d bytes", MaxPasswordBytes)}
	}

	return nil
}
