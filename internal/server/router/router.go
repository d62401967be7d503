// Package router wires handlers and middleware into the HTTP API.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/handlers"
	"github.com/iudanet/babysteps/internal/server/metrics"
	"github.com/iudanet/babysteps/internal/server/middleware"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage"
)

// Store объединяет все хранилища, нужные API
type Store interface {
	storage.UserStorage
	storage.ChildStorage
	storage.RecordStorage
	storage.SubscriptionStorage
	storage.Pinger
}

// Deps зависимости, необходимые для New
type Deps struct {
	Logger        *slog.Logger
	Store         Store
	Tokens        handlers.TokenIssuer
	Authenticator *auth.Authenticator
	Metrics       metrics.Recorder
	// Gatherer обслуживает /metrics; nil отключает endpoint
	Gatherer       prometheus.Gatherer
	AuthLimiter    *middleware.RateLimiter
	OAuthProviders map[string]handlers.OAuthProvider
	Cookies        session.CookieConfig
	OAuthBaseURL   string
	OAuthSuccess   string
	Version        string
}

// New builds the API router.
//
// Порядок middleware: RequestID → Recovery → Logging; защищенные маршруты
// дополнительно проходят RequireUser до разбора тела запроса.
func New(deps *Deps) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(deps.Logger))
	r.Use(middleware.LoggingMiddleware(deps.Logger, rec))

	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Store, deps.Tokens, deps.Authenticator, deps.Cookies, rec)
	oauthHandler := handlers.NewOAuthHandler(deps.Logger, deps.Store, deps.Tokens, deps.Cookies,
		deps.OAuthProviders, deps.OAuthBaseURL, deps.OAuthSuccess)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Store, deps.Version)
	childHandler := handlers.NewChildHandler(deps.Logger, deps.Store)
	recordHandler := handlers.NewRecordHandler(deps.Logger, deps.Store)
	subHandler := handlers.NewSubscriptionHandler(deps.Logger, deps.Store)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get("/api/health", healthHandler.Health)

	// --- Публичные маршруты ---
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(deps.AuthLimiter.Middleware)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/refresh", authHandler.Refresh)
		r.Get("/me", authHandler.Me)
		r.Post("/logout", authHandler.Logout)
		r.Post("/session", authHandler.Session)
	})

	r.Route("/api/oauth/{provider}", func(r chi.Router) {
		r.Get("/start", oauthHandler.Start)
		r.Get("/callback", oauthHandler.Callback)
	})

	// --- Защищенные маршруты ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(deps.Authenticator, deps.Logger, rec))

		r.Route("/api/children", func(r chi.Router) {
			r.Get("/", childHandler.List)
			r.Post("/", childHandler.Create)

			r.Route("/{childID}", func(r chi.Router) {
				r.Get("/", childHandler.Get)
				r.Put("/", childHandler.Update)
				r.Delete("/", childHandler.Delete)

				recordRoutes(r, "/growth", recordHandler.ListGrowth, recordHandler.CreateGrowth, recordHandler.DeleteGrowth)
				recordRoutes(r, "/vaccinations", recordHandler.ListVaccinations, recordHandler.CreateVaccination, recordHandler.DeleteVaccination)
				recordRoutes(r, "/nutrition", recordHandler.ListNutrition, recordHandler.CreateNutrition, recordHandler.DeleteNutrition)
				recordRoutes(r, "/sleep", recordHandler.ListSleep, recordHandler.CreateSleep, recordHandler.DeleteSleep)
				recordRoutes(r, "/health-notes", recordHandler.ListHealthNotes, recordHandler.CreateHealthNote, recordHandler.DeleteHealthNote)
				recordRoutes(r, "/journal", recordHandler.ListJournal, recordHandler.CreateJournalEntry, recordHandler.DeleteJournalEntry)
			})
		})

		r.Get("/api/subscription", subHandler.Get)
		r.Put("/api/subscription", subHandler.Put)
	})

	return r
}

func recordRoutes(r chi.Router, path string, list, create, del http.HandlerFunc) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", list)
		r.Post("/", create)
		r.Delete("/{id}", del)
	})
}
