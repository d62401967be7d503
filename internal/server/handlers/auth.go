package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/babysteps/internal/crypto"
	"github.com/iudanet/babysteps/internal/models"
	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/metrics"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage"
	"github.com/iudanet/babysteps/internal/validation"
	"github.com/iudanet/babysteps/pkg/api"
)

// invalidCredentials одинаковый ответ для неизвестного email и неверного пароля
const invalidCredentials = "Invalid email or password"

// TokenIssuer подписывает токены сессии
type TokenIssuer interface {
	Create(userID int64, ttl time.Duration) (string, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	users   storage.UserStorage
	tokens  TokenIssuer
	authn   *auth.Authenticator
	rec     metrics.Recorder
	cookies session.CookieConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens TokenIssuer,
	authn *auth.Authenticator,
	cookies session.CookieConfig,
	rec metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		users:     users,
		tokens:    tokens,
		authn:     authn,
		cookies:   cookies,
		rec:       rec,
	}
}

// Register обрабатывает POST /api/auth/register
// Создает аккаунт local:<email>, выдает токен и cookie
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := validation.SanitizeText(req.Name)
	if err := validation.MaxLen("name", name, 100); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.sendInternalError(w, r, "failed to hash password", err)
		return
	}

	user, err := h.users.CreateLocalUser(ctx, req.Email, name, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "email already registered", slog.String("email", storage.NormalizeEmail(req.Email)))
			h.sendError(w, "Account already exists", http.StatusConflict)
			return
		}
		h.sendInternalError(w, r, "failed to create user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully", slog.Int64("user_id", user.ID))

	h.issue(w, r, user, http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
// Неизвестный email, OAuth-аккаунт без пароля и неверный пароль дают один и тот же 401
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.sendError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByLocalEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// bcrypt по пустому хешу, чтобы время ответа не выдавало наличие аккаунта
			crypto.VerifyPassword("", req.Password)
			h.rejectLogin(w, r, "unknown email")
			return
		}
		h.sendInternalError(w, r, "failed to get user", err)
		return
	}

	if !crypto.VerifyPassword(user.PasswordHash, req.Password) {
		h.rejectLogin(w, r, "password mismatch")
		return
	}

	now := time.Now().UTC()
	if err := h.users.UpdateLastSignedIn(ctx, user.ID, now); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.rec.LastSignedInUpdateFailed()
		h.logger.WarnContext(ctx, "failed to update last signed in", slog.Any("error", err))
	} else {
		user.LastSignedIn = now
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.Int64("user_id", user.ID))

	h.issue(w, r, user, http.StatusOK)
}

func (h *AuthHandler) rejectLogin(w http.ResponseWriter, r *http.Request, reason string) {
	h.rec.RecordAuthFailure("bad_credentials")
	h.logger.WarnContext(r.Context(), "login failed", slog.String("reason", reason))
	h.sendError(w, invalidCredentials, http.StatusUnauthorized)
}

// Refresh обрабатывает POST /api/auth/refresh
// Текущий токен (Bearer или cookie) меняется на новый со сроком один год
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "token refreshed", slog.Int64("user_id", user.ID))

	h.issue(w, r, user, http.StatusOK)
}

// Me обрабатывает GET /api/auth/me
// Для анонимного запроса возвращает 401 с {"user": null}
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authn.Authenticate(r)
	if err != nil {
		if auth.IsAuthError(err) {
			h.sendJSON(w, api.MeResponse{User: nil}, http.StatusUnauthorized)
			return
		}
		h.sendInternalError(w, r, "failed to authenticate request", err)
		return
	}

	apiUser := toAPIUser(user)
	h.sendJSON(w, api.MeResponse{User: &apiUser}, http.StatusOK)
}

// Logout обрабатывает POST /api/auth/logout
// Удаляет только cookie: выданные Bearer токены остаются валидными до истечения срока
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearCookie(w, r)
	h.sendJSON(w, api.LogoutResponse{Success: true}, http.StatusOK)
}

// Session обрабатывает POST /api/auth/session
// Устанавливает cookie из Bearer токена, чтобы web-view нативного клиента получил сессию
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	bearer := session.BearerToken(r)
	if bearer == "" {
		h.sendError(w, "Bearer token is required", http.StatusBadRequest)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	h.cookies.SetCookie(w, r, bearer, session.OneYear)
	h.sendJSON(w, api.SessionResponse{Success: true, User: toAPIUser(user)}, http.StatusOK)
}

// authenticate пишет 401/500 сам и возвращает false, если запрос не аутентифицирован
func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.authn.Authenticate(r)
	if err != nil {
		if auth.IsAuthError(err) {
			h.rec.RecordAuthFailure("invalid_token")
			h.sendError(w, auth.Message(err), http.StatusUnauthorized)
			return nil, false
		}
		h.sendInternalError(w, r, "failed to authenticate request", err)
		return nil, false
	}
	return user, true
}

// issue подписывает новый токен, ставит cookie и отправляет {token, user}
func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	signed, err := h.tokens.Create(user.ID, session.OneYear)
	if err != nil {
		h.sendInternalError(w, r, "failed to create session token", err)
		return
	}

	h.cookies.SetCookie(w, r, signed, session.OneYear)
	h.sendJSON(w, api.AuthResponse{Token: signed, User: toAPIUser(user)}, status)
}
