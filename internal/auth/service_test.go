package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/user"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Users:          &user.Repo{},
		Secret:         "test-secret-test-secret-test-secret",
		AccessTokenTTL: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return now })

	token, expiry, err := svc.SignAccessToken("user-123", []string{"admin"})
	require.NoError(t, err)
	require.Equal(t, now.Add(15*time.Minute), expiry)

	identity, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", identity.UserID)
	require.Equal(t, []string{"admin"}, identity.Roles)
}

func TestAccessTokenWithoutRoles(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.SignAccessToken("user-456", nil)
	require.NoError(t, err)

	identity, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-456", identity.UserID)
	require.Empty(t, identity.Roles)
}

func TestTokenIssuedWithinSkewAccepted(t *testing.T) {
	svc, err := NewService(Config{
		Users:          &user.Repo{},
		Secret:         "test-secret-test-secret-test-secret",
		AccessTokenTTL: 15 * time.Minute,
		ClockSkew:      time.Minute,
	})
	require.NoError(t, err)

	issued := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return issued })
	token, _, err := svc.SignAccessToken("user-123", nil)
	require.NoError(t, err)

	// The verifier's clock lags the issuer's by 30s, so iat sits slightly
	// in the future. The skew window must absorb it.
	svc.WithNow(func() time.Time { return issued.Add(-30 * time.Second) })
	identity, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", identity.UserID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(t)
	issued := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return issued })
	token, _, err := svc.SignAccessToken("user-123", nil)
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return issued.Add(16 * time.Minute) })
	_, err = svc.ParseAccessToken(token)
	require.Error(t, err)
	var appErr *common.AppError
	require.True(t, common.AsAppError(err, &appErr))
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.SignAccessToken("user-123", nil)
	require.NoError(t, err)

	other, err := NewService(Config{
		Users:  &user.Repo{},
		Secret: "a-completely-different-secret-value",
	})
	require.NoError(t, err)
	_, err = other.ParseAccessToken(token)
	require.Error(t, err)
}

func TestRequireRoleForbidsNonStaff(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.SignAccessToken("user-789", nil)
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	handler := mw.RequireAuth(RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRoleAllowsStaff(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.SignAccessToken("staff-1", []string{user.RoleAdmin})
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	handler := mw.RequireAuth(RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := Middleware{Service: newTestService(t)}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
