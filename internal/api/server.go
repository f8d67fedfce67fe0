package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/crcon"
	"github.com/frontline-project/frontline/internal/maps"
	"github.com/frontline-project/frontline/internal/registry"
)

// Server is the REST API server.
type Server struct {
	cfg       *config.Config
	registry  *registry.Registry
	catalogue *maps.Catalogue
	crcon     *crcon.Client // nil when CRCON is not configured

	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates an API server. The CRCON client may be nil.
func NewServer(cfg *config.Config, reg *registry.Registry, catalogue *maps.Catalogue, crconClient *crcon.Client) *Server {
	if cfg.GetApplicationData().Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:       cfg,
		registry:  reg,
		catalogue: catalogue,
		crcon:     crconClient,
	}
}

// Start runs the API server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.router = s.buildRouter()

	addr := fmt.Sprintf(":%d", s.cfg.GetApplicationData().API.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("REST API server starting")

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}

	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	security := s.cfg.GetApplicationData().Security

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := security.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Must be false when AllowOrigins is "*"
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(security.RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	// ---- Public endpoints (no token required) ----
	public := router.Group("/api/public")
	{
		public.GET("/ping", s.handlePing)
		public.GET("/health", s.handleHealth)
	}

	// ---- Token-protected endpoints ----
	protected := router.Group("/api")
	protected.Use(RequireToken(security.APIToken))
	{
		protected.GET("/servers", s.handleListServers)
		protected.GET("/servers/:index/map", s.handleCurrentMap)
		protected.POST("/servers/:index/map", s.handleChangeMap)

		protected.GET("/maps", s.handleCatalogue)
		protected.GET("/maps/:mode", s.handleMapsForMode)
		protected.GET("/maps/:mode/variants", s.handleVariants)
		protected.POST("/maps/refresh", s.handleRefreshCatalogue)

		protected.GET("/gamestate", s.handleGamestate)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) serverIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= s.registry.Count() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such server"})
		return 0, false
	}
	return index, true
}
