// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/telecast-io/telecast/internal/api"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/config"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/middleware"
	"github.com/telecast-io/telecast/internal/playout"
	"github.com/telecast-io/telecast/internal/schedule"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	channelService *channel.Service
	lineupService  *channel.LineupService
	playoutService *playout.Service
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance with the full playout engine wired up
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	slackMs := cfg.Playout.Slack.Milliseconds()

	// Picker, resolver, and compiler draw randomness on different goroutines;
	// each gets its own generator so none shares mutable RNG state
	seed := time.Now().UnixNano()
	picker := playout.NewPicker(cfg.Playout.FillerCooldown.Milliseconds(), slackMs,
		rand.New(rand.NewSource(seed)))
	resolver := playout.NewResolver(picker, playout.ResolverOptions{
		SlackMs:             slackMs,
		OfflineCapMs:        cfg.Playout.OfflineCap.Milliseconds(),
		NewViewerGraceMs:    cfg.Playout.NewViewerGrace.Milliseconds(),
		StartupSnapMs:       cfg.Playout.StartupSnapThreshold.Milliseconds(),
		FillerStartMarginMs: cfg.Playout.FillerStartMargin.Milliseconds(),
	}, rand.New(rand.NewSource(seed+1)))
	cache := playout.NewStateCache(repos.Playback, slackMs)
	compiler := schedule.NewCompiler(slackMs, rand.New(rand.NewSource(seed+2)))

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		channelService: channel.NewService(repos),
		lineupService:  channel.NewLineupService(repos, compiler, cache),
		playoutService: playout.NewService(repos, cache, resolver, slackMs),
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupChannelRoutes(apiGroup, s.channelService, s.lineupService)
	api.SetupPlayoutRoutes(apiGroup, s.playoutService)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
