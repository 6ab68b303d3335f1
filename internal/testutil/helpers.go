//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/infra"
	"github.com/jackc/pgx/v5/pgtype"
)

// ServiceToken mints a service-realm token for the given guilds.
func (env *TestEnv) ServiceToken(guilds ...string) string {
	env.t.Helper()
	tok, err := env.JWTMgr.GenerateToken(auth.TokenRequest{Realm: auth.RealmService, Subject: "test-bot", Guilds: guilds})
	if err != nil {
		env.t.Fatalf("ServiceToken: %v", err)
	}
	return tok
}

// AdminToken mints an admin-realm token with role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	tok, err := env.JWTMgr.GenerateToken(auth.TokenRequest{Realm: auth.RealmAdmin, Subject: "test-ops", Role: role})
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return tok
}

// Do sends a JSON request to the test server.
func (env *TestEnv) Do(method, path, token string, body any) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("Do: encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("Do: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("Do: %v", err)
	}
	return resp
}

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// StoredBalance reads a balance straight from the accounts table.
func (env *TestEnv) StoredBalance(userID string) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n pgtype.Numeric
	if err := env.Pool.QueryRow(ctx, "SELECT balance FROM accounts WHERE user_id = $1", userID).Scan(&n); err != nil {
		env.t.Fatalf("StoredBalance: %v", err)
	}
	bal, err := infra.ScanBalance(n)
	if err != nil {
		env.t.Fatalf("StoredBalance: %v", err)
	}
	return bal
}

// Count runs a COUNT(*) query.
func (env *TestEnv) Count(query string, args ...any) int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	if err := env.Pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		env.t.Fatalf("Count: %v", err)
	}
	return n
}
