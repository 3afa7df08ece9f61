package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/auth"
	"github.com/orgstack/org-management-service/internal/config"
	"github.com/orgstack/org-management-service/internal/middleware"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	router      *gin.Engine
	config      *config.Config
	orgHandler  *OrgHandler
	authHandler *AuthHandler
	tokens      *auth.TokenService
	health      HealthChecker
	logger      *zap.Logger
}

func NewServer(
	cfg *config.Config,
	manager OrgManagerInterface,
	tokens *auth.TokenService,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	// Add Prometheus metrics middleware if enabled
	if cfg.Metrics.Enabled {
		router.Use(middleware.PrometheusMiddleware())
	}

	return &Server{
		router:      router,
		config:      cfg,
		orgHandler:  NewOrgHandler(manager, logger),
		authHandler: NewAuthHandler(manager, logger),
		tokens:      tokens,
		health:      health,
		logger:      logger,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Prometheus metrics endpoint (if enabled)
	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/auth/login", s.authHandler.Login)

		orgs := v1.Group("/orgs")
		{
			orgs.POST("", s.orgHandler.CreateOrganization)
			orgs.GET("/:name", s.orgHandler.GetOrganization)
			orgs.PUT("/:name", s.orgHandler.UpdateOrganization)

			// Delete is destructive; only the organization's own admin
			// may call it, so it sits behind the token gate.
			orgs.DELETE("/:name", middleware.JWTAuthMiddleware(s.tokens), s.orgHandler.DeleteOrganization)
		}
	}
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.health != nil {
		if err := s.health.HealthCheck(c.Request.Context()); err != nil {
			s.logger.Error("Health check failed", zap.Error(err))
			c.JSON(503, gin.H{
				"status":  "degraded",
				"service": "org-management-service",
			})
			return
		}
	}

	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "org-management-service",
	})
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
