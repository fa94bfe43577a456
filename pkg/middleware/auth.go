package middleware

import (
	"net/http"
	"strings"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The one message for every token failure: malformed, bad signature, expired
// and deleted-user all look the same from outside.
const msgInvalidToken = "Invalid or expired token"

// Authenticate resolves the session token on the request to a user and
// attaches the identity to the request context. Extraction order: cookie
// named "token" first, then the Authorization bearer header.
func Authenticate(users repository.UserRepository, secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract token
			sessionToken := extractToken(r)
			if sessionToken == "" {
				utils.ResponseUnauthorized(w, "Authentication token not provided")
				return
			}

			// 2. Validate signature and expiry
			subject, err := token.Validate(sessionToken, secret)
			if err != nil {
				logger.Warn("Session token rejected", zap.Error(err))
				utils.ResponseUnauthorized(w, msgInvalidToken)
				return
			}

			userID, err := uuid.Parse(subject)
			if err != nil {
				logger.Warn("Session token carries non-uuid subject", zap.String("subject", subject))
				utils.ResponseUnauthorized(w, msgInvalidToken)
				return
			}

			// 3. Resolve the subject. Sessions are stateless, so the user may
			// have been deleted after the token was issued.
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to resolve session user",
					zap.Error(err), zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				logger.Warn("Session subject no longer exists",
					zap.String("user_id", userID.String()))
				utils.ResponseUnauthorized(w, msgInvalidToken)
				return
			}

			// 4. Attach identity
			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// RequireRole allows the request through only when the identity attached by
// Authenticate carries one of the given roles. Mounting it without
// Authenticate is a wiring bug, not a request error, so it panics.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				panic("middleware: RequireRole mounted without Authenticate")
			}

			for _, allowed := range roles {
				if entity.UserRole(role) == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			userID, _ := utils.GetUserIDFromContext(r.Context())
			logger.Warn("Role denied",
				zap.String("user_id", userID.String()),
				zap.String("role", role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "You do not have permission to access this resource")
		})
	}
}
