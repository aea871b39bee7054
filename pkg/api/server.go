// Package api provides the HTTP surface of the triage pipeline: health,
// stats, a manual run trigger, and an audit-log tail endpoint. Grounded
// on the teacher's cmd/tarsy/main.go gin wiring (gin.Default(), gin.H
// responses) generalized into a standalone, testable Server type.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/logtriage/pkg/audit"
	"github.com/codeready-toolchain/logtriage/pkg/config"
	"github.com/codeready-toolchain/logtriage/pkg/dedup"
	"github.com/codeready-toolchain/logtriage/pkg/logbackend"
	"github.com/codeready-toolchain/logtriage/pkg/pipeline"
	"github.com/codeready-toolchain/logtriage/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	engine    *gin.Engine
	pipeline  *pipeline.Pipeline
	cfg       *config.Config
	auditPath string

	mu      sync.RWMutex
	lastRun *pipeline.RunSummary
	runAt   time.Time
	running bool
}

// NewServer builds a Server and registers its routes. auditPath is the
// path to the JSONL audit log the /audit endpoint tails; pass "" to
// disable that endpoint.
func NewServer(cfg *config.Config, p *pipeline.Pipeline, auditPath string) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLogMiddleware())

	s := &Server{engine: engine, pipeline: p, cfg: cfg, auditPath: auditPath}
	s.setupRoutes()
	return s
}

// Engine exposes the underlying gin engine, mainly so tests can drive
// requests through httptest without a listening socket.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP listener on addr; blocks until the server exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/stats", s.statsHandler)
	s.engine.POST("/run", s.runHandler)
	if s.auditPath != "" {
		s.engine.GET("/audit", s.auditTailHandler)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"running": running,
		"workers": s.cfg.Workers,
		"version": version.Full(),
	})
}

// statsHandler returns the counters of the most recently completed run
// (spec §4.J's RunSummary), or a zero-value summary if none has run yet.
func (s *Server) statsHandler(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastRun == nil {
		c.JSON(http.StatusOK, gin.H{"stats": dedup.Statistics{}, "ran_at": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": s.lastRun.Stats, "ran_at": s.runAt, "duration_ms": s.lastRun.DurationMS})
}

// runHandler triggers one pipeline run synchronously and returns its
// summary. A run already in flight is rejected with 409 rather than
// queued, since concurrent runs would share no run_state and double-count
// the per-run ticket cap.
func (s *Server) runHandler(c *gin.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var filters logbackend.Filters
	_ = c.ShouldBindJSON(&filters)

	summary, err := s.pipeline.Run(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.lastRun = &summary
	s.runAt = time.Now().UTC()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"stats": summary.Stats, "duration_ms": summary.DurationMS})
}
