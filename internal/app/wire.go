package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildcasino/casino/internal/auth"
	"github.com/guildcasino/casino/internal/guard"
	"github.com/guildcasino/casino/internal/handler"
	"github.com/guildcasino/casino/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Casino       *service.CasinoService
	Leaderboards *service.LeaderboardService
	Reconciler   handler.Reconciler
	JWTMgr       *auth.JWTManager
	Logger       *slog.Logger

	// PlayLimiter bounds play requests per guild member.
	PlayLimiter guard.Limiter
	Idempotency *guard.IdempotencyGuard

	HealthChecks map[string]handler.HealthCheck
	CORSOrigin   string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Handlers
	casinoHandler := handler.NewCasinoHandler(deps.Casino)
	boardHandler := handler.NewLeaderboardHandler(deps.Leaderboards)
	adminHandler := handler.NewAdminHandler(deps.Casino, deps.Reconciler, logger)

	origin := deps.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	playKey := func(r *http.Request) string {
		return handler.GuildParam(r) + ":" + handler.UserParam(r)
	}
	limitPlay := handler.RateLimit(deps.PlayLimiter, playKey)
	idempotent := handler.Idempotency(deps.Idempotency)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origin))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(deps.HealthChecks))

	// Service-authenticated routes
	r.Route("/v1/guilds/{guildID}", func(r chi.Router) {
		r.Use(auth.AuthenticateService(jwtMgr))
		r.Use(auth.RequireGuild(handler.GuildParam))

		r.Get("/leaderboard/balance", boardHandler.Balances)
		r.Get("/leaderboard/{metric}", boardHandler.Stats)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/balance", casinoHandler.GetBalance)
			r.Get("/bets/{game}", casinoHandler.GetBet)
			r.Put("/bets/{game}", casinoHandler.SetBet)
			r.Post("/bonus", casinoHandler.ClaimBonus)
			r.With(idempotent).Post("/give", casinoHandler.Give)
			r.Get("/roulette/selection", casinoHandler.GetRouletteSelection)
			r.Put("/roulette/selection", casinoHandler.SetRouletteSelection)
			r.Get("/blackjack", casinoHandler.GetBlackjack)
			r.Get("/mines", casinoHandler.GetMines)

			r.Group(func(r chi.Router) {
				r.Use(limitPlay)

				r.Post("/slots/spin", casinoHandler.SpinSlots)
				r.Post("/dice/roll", casinoHandler.RollDice)
				r.Post("/roulette/spin", casinoHandler.SpinRoulette)

				r.Post("/blackjack/start", casinoHandler.StartBlackjack)
				r.Post("/blackjack/hit", casinoHandler.HitBlackjack)
				r.Post("/blackjack/stand", casinoHandler.StandBlackjack)

				r.Post("/mines/start", casinoHandler.StartMines)
				r.Post("/mines/reveal", casinoHandler.RevealMine)
				r.Post("/mines/cashout", casinoHandler.CashOutMines)
				r.Post("/mines/forfeit", casinoHandler.ForfeitMines)
			})
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Get("/guilds/{guildID}/reconcile", adminHandler.Reconcile)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.WriteRoles()...))
			r.With(idempotent).Post("/users/{userID}/grant", adminHandler.Grant)
			r.Put("/users/{userID}/balance", adminHandler.SetBalance)
		})
	})

	return r
}
