package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute

	// GoogleUserInfoURL endpoint профиля Google
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthProvider описывает внешнего провайдера входа
type OAuthProvider struct {
	Config      *oauth2.Config
	UserInfoURL string
}

// GoogleProvider builds the Google provider; RedirectURL is filled per request.
func GoogleProvider(clientID, clientSecret string) OAuthProvider {
	return OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: GoogleUserInfoURL,
	}
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// OAuthHandler реализует вход через внешних провайдеров.
// Первый callback создает пользователя <provider>:<subject>, повторные обновляют профиль.
type OAuthHandler struct {
	responder
	users           storage.UserStorage
	tokens          TokenIssuer
	providers       map[string]OAuthProvider
	cookies         session.CookieConfig
	redirectBaseURL string
	successURL      string
}

// NewOAuthHandler создает handler OAuth
// redirectBaseURL - внешний адрес API, successURL - куда вернуть пользователя после входа
func NewOAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens TokenIssuer,
	cookies session.CookieConfig,
	providers map[string]OAuthProvider,
	redirectBaseURL, successURL string,
) *OAuthHandler {
	return &OAuthHandler{
		responder:       responder{logger: logger},
		users:           users,
		tokens:          tokens,
		providers:       providers,
		cookies:         cookies,
		redirectBaseURL: strings.TrimRight(redirectBaseURL, "/"),
		successURL:      successURL,
	}
}

// Start обрабатывает GET /api/oauth/{provider}/start
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	providerKey := chi.URLParam(r, "provider")
	provider, ok := h.provider(providerKey)
	if !ok {
		h.sendError(w, "OAuth provider not configured", http.StatusNotFound)
		return
	}

	state := uuid.NewString()
	h.setStateCookie(w, r, state, oauthStateTTL)

	authURL := h.config(provider, providerKey).AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback обрабатывает GET /api/oauth/{provider}/callback
// Выдает токен, ставит cookie и перенаправляет на successURL с #token=<token> для нативных клиентов
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providerKey := chi.URLParam(r, "provider")
	provider, ok := h.provider(providerKey)
	if !ok {
		h.sendError(w, "OAuth provider not configured", http.StatusNotFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.sendError(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.logger.WarnContext(ctx, "oauth state mismatch", slog.String("provider", providerKey))
		h.sendError(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	h.setStateCookie(w, r, "", -1)

	exchangeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg := h.config(provider, providerKey)
	oauthToken, err := cfg.Exchange(exchangeCtx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "oauth code exchange failed", slog.String("provider", providerKey), slog.Any("error", err))
		h.sendError(w, "failed to exchange OAuth code", http.StatusBadRequest)
		return
	}

	info, err := fetchUserInfo(exchangeCtx, cfg, provider.UserInfoURL, oauthToken)
	if err != nil {
		h.logger.WarnContext(ctx, "oauth user info failed", slog.String("provider", providerKey), slog.Any("error", err))
		h.sendError(w, "failed to fetch OAuth profile", http.StatusBadGateway)
		return
	}

	openID := providerKey + ":" + info.Subject
	user, err := h.users.UpsertOAuthUser(ctx, openID, info.Name, storage.NormalizeEmail(info.Email), providerKey)
	if err != nil {
		h.sendInternalError(w, r, "failed to upsert oauth user", err)
		return
	}

	signed, err := h.tokens.Create(user.ID, session.OneYear)
	if err != nil {
		h.sendInternalError(w, r, "failed to create session token", err)
		return
	}

	h.cookies.SetCookie(w, r, signed, session.OneYear)

	h.logger.InfoContext(ctx, "oauth login",
		slog.String("provider", providerKey),
		slog.Int64("user_id", user.ID))

	http.Redirect(w, r, h.successURL+"#token="+url.QueryEscape(signed), http.StatusFound)
}

func (h *OAuthHandler) provider(key string) (OAuthProvider, bool) {
	p, ok := h.providers[key]
	if !ok || p.Config == nil || p.Config.ClientID == "" || p.Config.ClientSecret == "" {
		return OAuthProvider{}, false
	}
	return p, true
}

// config возвращает копию конфигурации с redirect URL этого сервера
func (h *OAuthHandler) config(p OAuthProvider, key string) *oauth2.Config {
	cfg := *p.Config
	cfg.RedirectURL = fmt.Sprintf("%s/api/oauth/%s/callback", h.redirectBaseURL, key)
	return &cfg
}

func (h *OAuthHandler) setStateCookie(w http.ResponseWriter, r *http.Request, value string, ttl time.Duration) {
	cookie := h.cookies.Options(r)
	cookie.Name = oauthStateCookie
	cookie.Value = value
	cookie.Path = "/api/oauth"
	// state cookie должен пережить top-level redirect от провайдера
	cookie.SameSite = http.SameSiteLaxMode
	cookie.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, cookie)
}

func fetchUserInfo(ctx context.Context, cfg *oauth2.Config, userInfoURL string, tok *oauth2.Token) (oauthUserInfo, error) {
	resp, err := cfg.Client(ctx, tok).Get(userInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("user info status %d", resp.StatusCode)
	}

	// Google v2 отдает id, OIDC userinfo - sub
	var payload struct {
		ID    string `json:"id"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("decode user info: %w", err)
	}

	subject := payload.ID
	if subject == "" {
		subject = payload.Sub
	}
	if subject == "" {
		return oauthUserInfo{}, errors.New("user info has no subject")
	}

	return oauthUserInfo{Subject: subject, Email: payload.Email, Name: payload.Name}, nil
}
