package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/danmuck/snowdon/internal/observability"
	"github.com/danmuck/snowdon/internal/server"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

var ErrNoAddr = errors.New("admin: listen address not set")

// Connections reports the bridge lifecycle without touching the live client.
type Connections interface {
	Snapshot() server.Snapshot
}

// CommandInfo is one table entry as exposed on /commands.
type CommandInfo struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	ChangesState bool   `json:"changes_state"`
}

// Server is the operator-facing HTTP surface. It reads state only and never
// reaches the hardware.
type Server struct {
	ID      string
	Addr    string
	Started time.Time

	table  *commands.Table
	conns  Connections
	router *gin.Engine
	ready  func() bool
}

type Option func(*Server)

// WithReady overrides the readiness probe. The default reports ready once
// the bridge listener is bound.
func WithReady(fn func() bool) Option {
	return func(s *Server) {
		s.ready = fn
	}
}

func New(id, addr string, corsOrigins []string, table *commands.Table, conns Connections, opts ...Option) *Server {
	observability.RegisterMetrics()
	if table == nil {
		table = commands.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:      id,
		Addr:    strings.TrimSpace(addr),
		Started: time.Now(),
		table:   table,
		conns:   conns,
		router:  r,
		ready:   func() bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		ready := s.ready()
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"commands": listCommands(s.table)})
	})

	s.router.GET("/connection", func(c *gin.Context) {
		if s.conns == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bridge not running"})
			return
		}
		c.JSON(http.StatusOK, s.conns.Snapshot())
	})
}

// Serve runs the admin listener until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr == "" {
		return ErrNoAddr
	}
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("admin.Serve listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("admin.Serve shutdown failed")
			return err
		}
		log.Info().Msg("admin.Serve shutdown")
		return nil
	}
}

func listCommands(table *commands.Table) []CommandInfo {
	entries := table.Entries()
	list := make([]CommandInfo, 0, len(entries))
	for _, e := range entries {
		list = append(list, CommandInfo{
			Name:         e.Name,
			Code:         e.Code.String(),
			ChangesState: e.ChangesState,
		})
	}
	return list
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
