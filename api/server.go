package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wordbloom/contrib-engine/api/handlers"
	achievementservice "github.com/wordbloom/contrib-engine/app/modules/achievement/application"
	contributionservice "github.com/wordbloom/contrib-engine/app/modules/contribution/application"
	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

// Services bundles the module surfaces the API exposes.
type Services struct {
	Contributions contributionservice.Service
	Leaderboard   leaderboardservice.Service
	Achievements  achievementservice.Service
}

// Server is the HTTP front of the engine: a thin adapter, no business rules.
type Server struct {
	httpServer *http.Server
	router     chi.Router
}

// NewServer builds the router and wires the handlers.
func NewServer(
	cfg *config.Config,
	obs *observability.Observability,
	services Services,
	healthChecks ...handlers.HealthCheck,
) *Server {
	logger := obs.Logger

	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		chimiddleware.Timeout(cfg.HTTP.RequestTimeout),
		requestLogger(logger),
		httpMetrics(obs.Registerer()),
	)

	contributionHandler := handlers.NewContributionHandler(services.Contributions, logger)
	leaderboardHandler := handlers.NewLeaderboardHandler(services.Leaderboard, logger)
	achievementHandler := handlers.NewAchievementHandler(services.Achievements, logger)
	healthHandler := handlers.NewHealthHandler(logger, healthChecks...)

	r.Route("/api", func(r chi.Router) {
		r.Post("/contributions", contributionHandler.Record)
		r.Get("/statistics", contributionHandler.Statistics)
		r.Get("/leaderboard", leaderboardHandler.Get)
		r.Get("/leaderboard/chart.png", leaderboardHandler.Chart)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/contributions", contributionHandler.ListForUser)
			r.Get("/achievements", achievementHandler.ListForUser)
		})
	})
	r.Get("/healthz", healthHandler.Get)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		router: r,
	}
}

// Router exposes the chi router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe blocks serving requests until shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
