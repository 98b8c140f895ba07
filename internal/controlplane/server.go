package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/openmined/notionsync/internal/controlplane/middleware"
	"github.com/openmined/notionsync/internal/utils"
)

// Config contains configuration for the control plane server
type Config struct {
	Addr      string // Address to bind the control plane server
	AuthToken string // Access token for the control plane server
	Rate      string // request rate per client, limiter format
}

type Server struct {
	config   *Config
	server   *http.Server
	listener net.Listener
}

func NewServer(config *Config, svc *Services) (*Server, error) {
	routes, err := SetupRoutes(svc, &RouteConfig{
		Auth: middleware.TokenAuthConfig{
			Token: config.AuthToken,
		},
		Rate: config.Rate,
	})
	if err != nil {
		return nil, fmt.Errorf("control plane routes: %w", err)
	}

	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: routes,
		// a forced pass over large databases can take a while
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		config: config,
		server: httpServer,
	}, nil
}

// Listen binds the address. Start calls it when it has not been called.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	slog.Info("control plane start", "addr", fmt.Sprintf("http://%s", s.Addr()), "token", utils.MaskSecret(s.config.AuthToken))
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	slog.Info("control plane stop")
	return s.server.Shutdown(ctx)
}
