package middleware

import (
	"net/http"
	"strings"

	"github.com/cliffindus/marketplace-backend/api/responses"
	"github.com/cliffindus/marketplace-backend/internal/identity"
	pkgauth "github.com/cliffindus/marketplace-backend/pkg/auth"
	"github.com/cliffindus/marketplace-backend/pkg/auth/session"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	pkgerrors "github.com/cliffindus/marketplace-backend/pkg/errors"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// resolved actor. Requests without credentials are rejected.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authMiddleware(cfg, verifier, logg, true)
}

// OptionalAuth resolves credentials when present but lets unauthenticated
// requests through as the anonymous actor. Used on publicly browsable routes
// where visibility scoping does the narrowing.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authMiddleware(cfg, verifier, logg, false)
}

func authMiddleware(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), identity.Anonymous())))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			actor := identity.Actor{
				UserID:     claims.UserID,
				Role:       claims.Role,
				IsVerified: claims.IsVerified,
				AdminTier:  claims.AdminTier,
			}
			ctx := identity.WithActor(r.Context(), actor)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.UserID.String(),
					"actor_role": string(actor.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose actor is not an admin. Runs after Auth.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !identity.FromContext(r.Context()).IsAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
