package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/metrics"
)

// RequireUser создает middleware для защищенных маршрутов.
// Пользователь проверяется до разбора тела запроса; при успехе он доступен через auth.UserFromContext.
func RequireUser(authn *auth.Authenticator, logger *slog.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, err := authn.Authenticate(r)
			if err != nil {
				if auth.IsAuthError(err) {
					rec.RecordAuthFailure(failureReason(err))
					logger.WarnContext(ctx, "unauthenticated request",
						slog.String("path", r.URL.Path),
						slog.Any("error", err))
					writeError(w, http.StatusUnauthorized, "Unauthorized", auth.Message(err))
					return
				}

				logger.ErrorContext(ctx, "failed to authenticate request", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "Internal Server Error", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(ctx, user)))
		})
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, auth.ErrUserNotFound):
		return "user_not_found"
	default:
		return "other"
	}
}
