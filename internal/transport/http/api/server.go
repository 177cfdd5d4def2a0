// Package apihttp exposes signal ingestion, the derived-trade query surface
// and the operator admin actions over HTTP.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sigflow/internal/logger"
)

// Server hosts the sigflow HTTP API.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig wires the router's dependencies.
type ServerConfig struct {
	Addr   string
	Router *Router
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Router == nil {
		return nil, errors.New("http server requires a router")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	cfg.Router.Register(engine.Group("/api"))
	return &Server{addr: cfg.Addr, router: engine}, nil
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
