package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ibuddy/iboost/internal/logging"
	"github.com/ibuddy/iboost/internal/protocol"
	"github.com/ibuddy/iboost/internal/telemetry"
	"github.com/ibuddy/iboost/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ServiceName is reported by /health and advertised over mDNS
const ServiceName = version.Binary

// Engine is the part of the protocol engine the API drives
type Engine interface {
	Status() protocol.Status
	BoostStart(ctx context.Context, minutes uint8) error
	BoostCancel(ctx context.Context) error
}

// Config holds the server configuration
type Config struct {
	Listen string // host:port
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records request metrics and serves gatherer on /metrics.
// A nil gatherer serves the default registry.
func WithMetrics(sink *telemetry.PrometheusSink, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = sink
		s.gatherer = gatherer
	}
}

// Server is the status and control API of the daemon
type Server struct {
	config   Config
	engine   Engine
	store    *telemetry.Store
	metrics  *telemetry.PrometheusSink
	gatherer prometheus.Gatherer
	started  time.Time

	router     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
	done        chan struct{}
	closeOnce   sync.Once
}

// New creates a Server and registers its routes
func New(config Config, engine Engine, store *telemetry.Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:      config,
		engine:      engine,
		store:       store,
		started:     time.Now(),
		activeConns: make(map[string]*websocket.Conn),
		done:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	if s.metrics != nil {
		r.Use(s.requestMetrics())
	}
	s.router = r
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              config.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the listen address. Separate from Serve so the caller knows
// the bound port before advertising it.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return ln, nil
}

// Serve serves the API on ln until ctx ends, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logging.Info("HTTP API listening", zap.String("addr", ln.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting requests and closes live WebSocket streams
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API...")

	s.closeOnce.Do(func() { close(s.done) })
	err := s.httpServer.Shutdown(ctx)

	// Hijacked WebSocket connections are not tracked by http.Server
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Debug("Closing WebSocket stream", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}
	return err
}

// GetActiveConnections returns the number of open WebSocket streams
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logging.LogHTTPRequest(c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
