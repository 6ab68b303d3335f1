package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/domain"
	"github.com/guildcasino/casino/internal/guard"
	"github.com/guildcasino/casino/internal/handler"
	"github.com/guildcasino/casino/internal/projection"
	"github.com/guildcasino/casino/internal/repository/memory"
	"github.com/guildcasino/casino/internal/rng"
	"github.com/guildcasino/casino/internal/service"
	"github.com/guildcasino/casino/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	server *httptest.Server
	jwt    *auth.JWTManager
}

func newRouterFixture(t *testing.T, src rng.Source, playLimit int) *routerFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ml := servicetest.NewMemoryLedger(memory.NewStore(), domain.DefaultHouseRules())
	casino := service.NewCasinoService(ml, src, service.DefaultCasinoConfig(), logger)
	boards := service.NewLeaderboardService(casino, projection.NewInMemoryStore(), time.Minute,
		guard.NewCircuitBreaker(3, time.Minute), logger)
	jwtMgr := auth.NewJWTManager("router-test-secret", time.Hour, time.Hour)

	r := NewRouter(RouterDeps{
		Casino:       casino,
		Leaderboards: boards,
		Reconciler:   ml,
		JWTMgr:       jwtMgr,
		Logger:       logger,
		PlayLimiter:  guard.NewRateLimiter(playLimit, time.Minute),
		Idempotency:  guard.NewIdempotencyGuard(time.Hour),
		HealthChecks: map[string]handler.HealthCheck{},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &routerFixture{server: srv, jwt: jwtMgr}
}

func (f *routerFixture) token(t *testing.T, req auth.TokenRequest) string {
	t.Helper()
	tok, err := f.jwt.GenerateToken(req)
	require.NoError(t, err)
	return tok
}

func (f *routerFixture) botToken(t *testing.T) string {
	return f.token(t, auth.TokenRequest{Realm: auth.RealmService, Subject: "bot", Guilds: []string{"g1"}})
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, rng.Seeded(1), 10)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "", nil, nil))
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t, rng.Seeded(1), 10)
	path := "/v1/guilds/g1/users/alice/balance"

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, path, "", nil, nil))
	})

	t.Run("admin token on service route", func(t *testing.T) {
		tok := f.token(t, auth.TokenRequest{Realm: auth.RealmAdmin, Subject: "ops", Role: auth.RoleOperator})
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, path, tok, nil, nil))
	})

	t.Run("guild outside the token", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden,
			f.do(t, http.MethodGet, "/v1/guilds/g2/users/alice/balance", f.botToken(t), nil, nil))
	})

	t.Run("viewer cannot grant", func(t *testing.T) {
		tok := f.token(t, auth.TokenRequest{Realm: auth.RealmAdmin, Subject: "ops", Role: auth.RoleViewer})
		assert.Equal(t, http.StatusForbidden,
			f.do(t, http.MethodPost, "/admin/users/alice/grant", tok, map[string]int64{"delta": 5}, nil))
	})
}

func TestRouter_DiceRound(t *testing.T) {
	f := newRouterFixture(t, rng.NewSequence(3), 10)
	tok := f.botToken(t)

	var round service.DiceRound
	status := f.do(t, http.MethodPost, "/v1/guilds/g1/users/alice/dice/roll", tok, map[string]int64{"stake": 10}, &round)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, round.Face)
	assert.Equal(t, int64(10), round.Net)
	assert.Equal(t, int64(210), round.Balance)

	var bal struct {
		Balance int64 `json:"balance"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/guilds/g1/users/alice/balance", tok, nil, &bal))
	assert.Equal(t, int64(210), bal.Balance)

	var board struct {
		Lines []domain.StatLine `json:"lines"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/guilds/g1/leaderboard/wins?game=dice", tok, nil, &board))
	require.Len(t, board.Lines, 1)
	assert.Equal(t, "alice", board.Lines[0].UserID)
	assert.Equal(t, int64(1), board.Lines[0].Wins)
}

func TestRouter_Errors(t *testing.T) {
	f := newRouterFixture(t, rng.Seeded(1), 10)
	tok := f.botToken(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"stake above balance", http.MethodPost, "/v1/guilds/g1/users/alice/dice/roll", map[string]int64{"stake": 500}, http.StatusBadRequest},
		{"unknown game bet", http.MethodGet, "/v1/guilds/g1/users/alice/bets/craps", nil, http.StatusBadRequest},
		{"hit without a hand", http.MethodPost, "/v1/guilds/g1/users/alice/blackjack/hit", nil, http.StatusConflict},
		{"reveal without a cell", http.MethodPost, "/v1/guilds/g1/users/alice/mines/reveal", map[string]any{}, http.StatusBadRequest},
		{"unknown metric", http.MethodGet, "/v1/guilds/g1/leaderboard/luck", nil, http.StatusBadRequest},
		{"give to self", http.MethodPost, "/v1/guilds/g1/users/alice/give", map[string]any{"to": "alice", "amount": 5}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.do(t, tt.method, tt.path, tok, tt.body, nil))
		})
	}
}

func TestRouter_PlayRateLimited(t *testing.T) {
	f := newRouterFixture(t, rng.NewSequence(0, 0, 0), 2)
	tok := f.botToken(t)
	path := "/v1/guilds/g1/users/alice/dice/roll"

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, tok, nil, nil))
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, tok, nil, nil))
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, path, tok, nil, nil))

	// reads are not limited
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/guilds/g1/users/alice/balance", tok, nil, nil))
}

func TestRouter_AdminGrant(t *testing.T) {
	f := newRouterFixture(t, rng.Seeded(1), 10)
	tok := f.token(t, auth.TokenRequest{Realm: auth.RealmAdmin, Subject: "ops", Role: auth.RoleOperator})

	var bal struct {
		Balance int64 `json:"balance"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/admin/users/alice/grant", tok, map[string]int64{"delta": 25}, &bal))
	assert.Equal(t, int64(225), bal.Balance)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/admin/users/alice/balance", tok, map[string]int64{"balance": 7}, &bal))
	assert.Equal(t, int64(7), bal.Balance)

	var report struct {
		AllPassed bool `json:"all_passed"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/admin/guilds/g1/reconcile", tok, nil, &report))
	assert.True(t, report.AllPassed)

	root := f.token(t, auth.TokenRequest{Realm: auth.RealmAdmin, Subject: "root", Role: auth.RoleSuperAdmin})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/admin/users/alice/balance", root, map[string]int64{"balance": 40}, &bal))
	assert.Equal(t, int64(40), bal.Balance)
}
