package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/discovery"
	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/urls"
	"github.com/muurk/nameloc/internal/version"
)

// DefaultInstanceName is the mDNS instance name used when none is configured
const DefaultInstanceName = "nameloc directory"

// shutdownGrace bounds how long Start waits for connections to drain after a signal
const shutdownGrace = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host         string
	Port         int
	Advertise    bool   // Announce the server via mDNS
	InstanceName string // mDNS instance name (default DefaultInstanceName)
	CertPath     string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath      string
	CaptureDir   string // Directory to write websocket transcripts (empty = disabled)
}

// Server serves a Directory over HTTP and WebSocket
type Server struct {
	config    *Config
	backend   directory.Directory
	tlsConfig *tls.Config
	registry  *prometheus.Registry
	metrics   *Metrics
	upgrader  websocket.Upgrader
	handler   http.Handler

	httpServer *http.Server
	listener   net.Listener
	mdns       *zeroconf.Server

	wg       sync.WaitGroup
	mu       sync.Mutex
	sessions map[string]*websocket.Conn // by session id
}

// New creates a new Server answering from backend
func New(config *Config, backend directory.Directory) (*Server, error) {
	if backend == nil {
		return nil, errors.New("server requires a directory backend")
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		config:    config,
		backend:   backend,
		tlsConfig: tlsConfig,
		registry:  registry,
		metrics:   NewMetrics(registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*websocket.Conn),
	}
	s.handler = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving every directory route
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.observe)
	r.Use(chimiddleware.Recoverer)

	r.Get(urls.HealthPath, s.handleHealth)
	r.Method(http.MethodGet, urls.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Get(urls.LocationsPath, s.handleLocations)
	r.Get(urls.NameCheckPath, s.handleNameCheck)
	r.Get(urls.WebSocketPath, s.handleWebSocket)

	return r
}

// Listen binds the configured address. Port 0 picks a free port; Addr
// reports the result.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	return nil
}

// Addr returns the bound listener address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}

	logging.Info("Starting directory server",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("scheme", scheme),
		zap.String("version", version.Short()),
	)

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			logging.Warn("mDNS advertisement failed; continuing without it", zap.Error(err))
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise() error {
	port := s.config.Port
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	instance := s.config.InstanceName
	if instance == "" {
		instance = DefaultInstanceName
	}

	txt := []string{
		"path=" + urls.APIPrefix,
		"version=" + version.Short(),
	}
	if s.tlsConfig != nil {
		txt = append(txt, "scheme=https")
	}

	mdns, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	s.mdns = mdns

	logging.Info("Advertising directory via mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}

	var shutdownErr error
	if s.httpServer != nil {
		shutdownErr = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		shutdownErr = s.listener.Close()
	}

	// Hijacked websocket connections are not tracked by http.Server
	s.mu.Lock()
	for id, conn := range s.sessions {
		logging.Info("Closing websocket session",
			zap.String("session_id", id),
			zap.String("remote_addr", conn.RemoteAddr().String()),
		)
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
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()

	if errors.Is(shutdownErr, net.ErrClosed) {
		return nil
	}
	return shutdownErr
}

// ActiveSessions returns the number of open websocket sessions
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
