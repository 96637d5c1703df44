package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avmqacl/internal/acl"
	"github.com/vyrodovalexey/avmqacl/internal/auth/plain"
	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race
// conditions when multiple servers are created (e.g. in tests).
var ginModeOnce sync.Once

// ServerConfig holds configuration for the admin server.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ReloadRPS and ReloadBurst rate-limit POST /v1/reload. Zero RPS
	// disables the limit.
	ReloadRPS   int
	ReloadBurst int
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:      ":8181",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ReloadRPS:    1,
		ReloadBurst:  2,
	}
}

// Server is the administrative HTTP server.
type Server struct {
	engine        *gin.Engine
	httpServer    *http.Server
	authorizer    *acl.Authorizer
	config        *ServerConfig
	logger        observability.Logger
	verifier      *plain.Verifier
	reloadLimiter *rate.Limiter
	gatherer      prometheus.Gatherer
	mu            sync.Mutex
	running       bool
}

// ServerOption is a functional option for the admin server.
type ServerOption func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger observability.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVerifier enables the POST /v1/authenticate endpoint backed by
// the static credentials verifier.
func WithVerifier(verifier *plain.Verifier) ServerOption {
	return func(s *Server) {
		s.verifier = verifier
	}
}

// WithGatherer sets the Prometheus gatherer backing /metrics. Defaults
// to prometheus.DefaultGatherer.
func WithGatherer(gatherer prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// NewServer creates an admin server for the given authorizer.
func NewServer(config *ServerConfig, authorizer *acl.Authorizer, opts ...ServerOption) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:     gin.New(),
		authorizer: authorizer,
		config:     config,
		logger:     observability.NopLogger(),
		gatherer:   prometheus.DefaultGatherer,
	}

	for _, opt := range opts {
		opt(s)
	}

	if config.ReloadRPS > 0 {
		s.reloadLimiter = rate.NewLimiter(rate.Limit(config.ReloadRPS), config.ReloadBurst)
	}

	s.engine.Use(gin.Recovery())
	s.registerRoutes()

	return s
}

// registerRoutes wires all admin endpoints.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/readyz", s.handleReadyz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})))

	v1 := s.engine.Group("/v1")
	v1.POST("/reload", s.handleReload)
	v1.POST("/check", s.handleCheck)
	v1.GET("/rules", s.handleRules)
	v1.GET("/cache", s.handleCache)

	if s.verifier != nil {
		v1.POST("/authenticate", s.handleAuthenticate)
	}
}

// Engine returns the underlying gin engine, for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReadyz is the readiness probe. The authorizer performs its
// initial load before the server starts, so readiness reports the
// active rule count.
func (s *Server) handleReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"rules":  len(s.authorizer.Entries()),
	})
}

// handleReload forces a rule reload outside the freshness window.
func (s *Server) handleReload(c *gin.Context) {
	if s.reloadLimiter != nil && !s.reloadLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "reload rate limit exceeded"})
		return
	}

	changed := s.authorizer.ForceReload()
	s.logger.Info("manual reload triggered",
		observability.Bool("changed", changed),
		observability.String("client", c.ClientIP()),
	)
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// checkRequest is the body of POST /v1/check.
type checkRequest struct {
	PrincipalType string `json:"principal_type" binding:"required"`
	Principal     string `json:"principal" binding:"required"`
	Operation     string `json:"operation" binding:"required"`
	Resource      string `json:"resource" binding:"required"`
}

// handleCheck evaluates an authorization request through the normal
// decision path.
func (s *Server) handleCheck(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed := s.authorizer.CheckAccess(req.PrincipalType, req.Principal, req.Operation, req.Resource)
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// handleRules dumps the active rule snapshot.
func (s *Server) handleRules(c *gin.Context) {
	entries := s.authorizer.Entries()
	c.JSON(http.StatusOK, gin.H{
		"count": len(entries),
		"rules": entries,
	})
}

// authenticateRequest is the body of POST /v1/authenticate.
type authenticateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleAuthenticate verifies a username/password pair against the
// static credentials file. Registered only when a verifier is
// configured.
func (s *Server) handleAuthenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": s.verifier.Verify(req.Username, req.Password),
	})
}

// handleCache reports verdict cache statistics.
func (s *Server) handleCache(c *gin.Context) {
	stats := s.authorizer.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"enabled": stats.Enabled,
		"hits":    stats.Hits,
		"misses":  stats.Misses,
	})
}

// Start starts the admin server. It returns once the listener is
// accepting or fails to bind; serving continues in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("admin server already running")
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("admin server starting",
		observability.String("address", s.config.Address),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("admin server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down the admin server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("admin server stopping")
	return server.Shutdown(ctx)
}
