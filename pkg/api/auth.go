package api

import "time"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email    string `json:"email"`          // email, нормализуется сервером (trim + lower-case)
	Password string `json:"password"`       // минимум 6 символов
	Name     string `json:"name,omitempty"` // отображаемое имя, необязательно
}

// LoginRequest представляет запрос на аутентификацию по email и паролю
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User публичное представление пользователя (без хеша пароля)
type User struct {
	LastSignedIn time.Time `json:"lastSignedIn"`
	OpenID       string    `json:"openId"`      // local:<email> или <provider>:<subject>
	Name         string    `json:"name"`        // может быть пустым
	Email        string    `json:"email"`       // может быть пустым
	LoginMethod  string    `json:"loginMethod"` // email, google
	ID           int64     `json:"id"`
}

// AuthResponse возвращается register, login и refresh
type AuthResponse struct {
	Token string `json:"token"` // подписанный токен сессии
	User  User   `json:"user"`
}

// MeResponse представляет ответ GET /api/auth/me
// User == nil означает анонимный запрос
type MeResponse struct {
	User *User `json:"user"`
}

// SessionResponse представляет ответ POST /api/auth/session
type SessionResponse struct {
	User    User `json:"user"`
	Success bool `json:"success"`
}

// LogoutResponse представляет ответ POST /api/auth/logout
type LogoutResponse struct {
	Success bool `json:"success"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
