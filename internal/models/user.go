package models

import "time"

// Role определяет уровень доступа пользователя
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// LoginMethodEmail is the login method tag of password accounts.
const LoginMethodEmail = "email"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastSignedIn time.Time `json:"last_signed_in"`
	OpenID       string    `json:"open_id"`      // local:<email> или <provider>:<subject>
	Name         string    `json:"name"`         // может быть пустым
	Email        string    `json:"email"`        // может быть пустым
	LoginMethod  string    `json:"login_method"` // email, google, ...
	PasswordHash string    `json:"-"`            // bcrypt хеш, пустой для OAuth аккаунтов
	Role         Role      `json:"role"`
	ID           int64     `json:"id"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
