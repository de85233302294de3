package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cliffindus/marketplace-backend/internal/identity"
	pkgauth "github.com/cliffindus/marketplace-backend/pkg/auth"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

type stubSessionChecker struct {
	active map[string]bool
}

func (s *stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	return s.active[accessID], nil
}

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "marketplace-test", ExpirationMinutes: 15}
}

func mintTestToken(t *testing.T, userID uuid.UUID, role enums.Role, jti string) string {
	t.Helper()

	token, err := pkgauth.MintAccessToken(authTestConfig(), time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     userID,
		Role:       role,
		IsVerified: true,
		AdminTier:  enums.AdminTierNone,
		JTI:        jti,
	})
	require.NoError(t, err)
	return token
}

func actorCapturingHandler(captured *identity.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthInjectsActor(t *testing.T) {
	userID := uuid.New()
	jti := uuid.NewString()
	checker := &stubSessionChecker{active: map[string]bool{jti: true}}

	var captured identity.Actor
	handler := Auth(authTestConfig(), checker, nil)(actorCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, userID, enums.RoleConsumer, jti))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, captured.UserID)
	require.Equal(t, enums.RoleConsumer, captured.Role)
	require.True(t, captured.IsVerified)
}

func TestAuthRejectsMissingAndRevokedSessions(t *testing.T) {
	checker := &stubSessionChecker{active: map[string]bool{}}
	var captured identity.Actor
	handler := Auth(authTestConfig(), checker, nil)(actorCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token but revoked session
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New(), enums.RoleConsumer, uuid.NewString()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var captured identity.Actor
	handler := OptionalAuth(authTestConfig(), nil, nil)(actorCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, captured.IsAnonymous())
}

func TestOptionalAuthStillRejectsGarbageTokens(t *testing.T) {
	var captured identity.Actor
	handler := OptionalAuth(authTestConfig(), nil, nil)(actorCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	admin := identity.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, IsVerified: true, AdminTier: enums.AdminTierAdmin}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(identity.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	consumer := identity.Actor{UserID: uuid.New(), Role: enums.RoleConsumer, IsVerified: true}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(identity.WithActor(req.Context(), consumer))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBearerTokenParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer   abc123  ")
	require.Equal(t, "abc123", bearerToken(req))

	req.Header.Set("Authorization", "raw-token")
	require.Equal(t, "raw-token", bearerToken(req))

	req.Header.Del("Authorization")
	require.True(t, strings.TrimSpace(bearerToken(req)) == "")
}
