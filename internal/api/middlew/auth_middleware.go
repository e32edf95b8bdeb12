package middlew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/service"
	"tx-monitor/pkg/response"

	"github.com/google/uuid"
)

func RequireAuth(authService service.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Authorization header is required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("invalid authorization header format")
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
				return
			}

			tokenString := parts[1]

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, custom_err.ErrTokenExpired):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_expired", "Token has expired")
				case errors.Is(err, custom_err.ErrTokenNotActive):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_not_active", "Token not yet active")
				case errors.Is(err, custom_err.ErrInvalidToken):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "invalid_token", "Invalid token")
				default:
					log.Error("failed to validate token", slog.String("error", err.Error()))
					response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Internal error")
				}
				return
			}
			ctx := WithOperatorID(r.Context(), claims.OperatorID)

			loggerWithOperator := log.With(slog.String("operator_id", claims.OperatorID.String()))
			ctx = context.WithValue(ctx, loggerKey, loggerWithOperator)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithOperatorID(ctx context.Context, operatorID uuid.UUID) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

// GetOperatorID возвращает id оператора, положенный RequireAuth.
// Отсутствие значения означает запрос мимо аутентификации.
func GetOperatorID(ctx context.Context) (uuid.UUID, error) {
	operatorID, ok := ctx.Value(operatorIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, custom_err.ErrUnauthorized
	}
	return operatorID, nil
}
