// Package session extracts session tokens from requests and manages the session cookie.
//
// Web clients rely on the cookie set at login; native clients keep the token
// themselves and send it as a Bearer header. Both end up as one token value.
package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName имя cookie сессии, общее для сервера и клиентов
	CookieName = "app_session_id"

	// OneYear max-age cookie при login/register/refresh/session
	OneYear = 365 * 24 * time.Hour

	bearerScheme = "Bearer"
)

// TokenFromRequest возвращает токен из Authorization: Bearer, иначе из cookie
// Пустая строка если нет ни того, ни другого
func TokenFromRequest(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// BearerToken извлекает токен только из заголовка Authorization
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Ожидаем формат: "Bearer <token>", схема без учета регистра
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// CookieConfig holds deployment-wide cookie settings.
type CookieConfig struct {
	Domain string
	// ForceSecure marks cookies Secure even for plain HTTP requests (TLS terminated upstream).
	ForceSecure bool
}

// Options returns cookie attributes for the given request.
// Secure cookies use SameSite=None so that cross-site web clients keep the session.
func (c CookieConfig) Options(r *http.Request) *http.Cookie {
	secure := c.ForceSecure || isSecureRequest(r)

	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

// SetCookie устанавливает cookie сессии с указанным max-age
func (c CookieConfig) SetCookie(w http.ResponseWriter, r *http.Request, token string, maxAge time.Duration) {
	cookie := c.Options(r)
	cookie.Value = token
	cookie.MaxAge = int(maxAge.Seconds())
	cookie.Expires = time.Now().Add(maxAge)
	http.SetCookie(w, cookie)
}

// ClearCookie удаляет cookie сессии
func (c CookieConfig) ClearCookie(w http.ResponseWriter, r *http.Request) {
	cookie := c.Options(r)
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

// isSecureRequest проверяет HTTPS, в том числе за прокси
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		return false
	}
	// Может быть список через запятую
	first, _, _ := strings.Cut(proto, ",")
	return strings.EqualFold(strings.TrimSpace(first), "https")
}
