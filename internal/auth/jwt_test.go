package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret-key", 24*time.Hour, 8*time.Hour)
}

func TestGenerateAndValidateServiceToken(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(TokenRequest{Realm: RealmService, Subject: "discord-bot", Guilds: []string{"g1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := mgr.ValidateTokenForRealm(token, RealmService)
	require.NoError(t, err)
	assert.Equal(t, "discord-bot", claims.Subject)
	assert.Equal(t, RealmService, claims.Realm)
	assert.True(t, claims.AllowsGuild("g1"))
	assert.False(t, claims.AllowsGuild("g2"))
}

func TestUnscopedServiceTokenAllowsEveryGuild(t *testing.T) {
	c := &Claims{Realm: RealmService}
	assert.True(t, c.AllowsGuild("anything"))
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(TokenRequest{Realm: RealmAdmin, Subject: "ops", Role: RoleOperator})
	require.NoError(t, err)

	claims, err := mgr.ValidateTokenForRealm(token, RealmAdmin)
	require.NoError(t, err)
	assert.Equal(t, RealmAdmin, claims.Realm)
	assert.Equal(t, RoleOperator, claims.Role)
}

func TestGenerateToken_Rejects(t *testing.T) {
	mgr := newTestJWTManager()

	tests := []struct {
		name string
		req  TokenRequest
	}{
		{"unknown realm", TokenRequest{Realm: "player", Subject: "x"}},
		{"unknown admin role", TokenRequest{Realm: RealmAdmin, Subject: "ops", Role: "owner"}},
		{"missing subject", TokenRequest{Realm: RealmService}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.GenerateToken(tt.req)
			assert.Error(t, err)
		})
	}
}

func TestRealmMismatchRejected(t *testing.T) {
	mgr := newTestJWTManager()

	token, err := mgr.GenerateToken(TokenRequest{Realm: RealmService, Subject: "bot"})
	require.NoError(t, err)

	_, err = mgr.ValidateTokenForRealm(token, RealmAdmin)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected realm admin")
}

func TestInvalidSecretRejected(t *testing.T) {
	mgr1 := NewJWTManager("secret-1", 24*time.Hour, 8*time.Hour)
	mgr2 := NewJWTManager("secret-2", 24*time.Hour, 8*time.Hour)

	token, err := mgr1.GenerateToken(TokenRequest{Realm: RealmService, Subject: "bot"})
	require.NoError(t, err)

	_, err = mgr2.ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := newTestJWTManager()
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return issued }

	token, err := mgr.GenerateToken(TokenRequest{Realm: RealmService, Subject: "bot"})
	require.NoError(t, err)

	mgr.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	mgr := newTestJWTManager()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Subject", SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	serviceTok, err := mgr.GenerateToken(TokenRequest{Realm: RealmService, Subject: "bot", Guilds: []string{"g1"}})
	require.NoError(t, err)
	viewerTok, err := mgr.GenerateToken(TokenRequest{Realm: RealmAdmin, Subject: "ops", Role: RoleViewer})
	require.NoError(t, err)
	operatorTok, err := mgr.GenerateToken(TokenRequest{Realm: RealmAdmin, Subject: "ops", Role: RoleOperator})
	require.NoError(t, err)
	superTok, err := mgr.GenerateToken(TokenRequest{Realm: RealmAdmin, Subject: "root", Role: RoleSuperAdmin})
	require.NoError(t, err)

	guildOf := func(r *http.Request) string { return r.URL.Query().Get("guild") }
	serviceChain := AuthenticateService(mgr)(RequireGuild(guildOf)(ok))
	adminWrite := AuthenticateAdmin(mgr)(RequireRole(WriteRoles()...)(ok))

	tests := []struct {
		name    string
		handler http.Handler
		url     string
		header  string
		want    int
	}{
		{"service ok", serviceChain, "/?guild=g1", "Bearer " + serviceTok, http.StatusNoContent},
		{"service wrong guild", serviceChain, "/?guild=g2", "Bearer " + serviceTok, http.StatusForbidden},
		{"missing header", serviceChain, "/?guild=g1", "", http.StatusUnauthorized},
		{"bad scheme", serviceChain, "/?guild=g1", "Basic abc", http.StatusUnauthorized},
		{"admin token on service route", serviceChain, "/?guild=g1", "Bearer " + viewerTok, http.StatusUnauthorized},
		{"viewer cannot write", adminWrite, "/", "Bearer " + viewerTok, http.StatusForbidden},
		{"operator writes", adminWrite, "/", "Bearer " + operatorTok, http.StatusNoContent},
		{"superadmin writes", adminWrite, "/", "Bearer " + superTok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "bot", rec.Header().Get("X-Subject"))
			} else {
				assert.Contains(t, rec.Body.String(), `"code"`)
			}
		})
	}
}
