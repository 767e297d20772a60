// Copyright (c) 2026, Datastack Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server implements stackd, the HTTP API exposing manifest rendering
// and cluster status over REST, with health, readiness, and Prometheus
// metrics endpoints.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/datastackhq/stackctl/pkg/deployer"
	"github.com/datastackhq/stackctl/pkg/k8s/client"
	"github.com/datastackhq/stackctl/pkg/manifest"
)

// Server is the stackd HTTP server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	deployer    *deployer.Deployer
	renderer    *manifest.Renderer

	mu    sync.RWMutex
	ready bool
}

// NewServer creates a Server backed by the given Kubernetes clientset.
func NewServer(config *Config, clientset client.Interface) *Server {
	if config == nil {
		config = NewConfig()
	}

	s := &Server{
		config:      config,
		rateLimiter: rate.NewLimiter(config.RateLimit, config.RateLimitBurst),
		deployer:    deployer.New(clientset),
		renderer:    manifest.NewRenderer(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Address, config.Port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// System endpoints, no rate limiting.
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/version", s.handleVersion)
	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints with the full middleware chain.
	mux.HandleFunc("/v1/render", s.withMiddleware(s.handleRender))
	mux.HandleFunc("/v1/status", s.withMiddleware(s.handleStatus))

	return mux
}

// SetReady marks the server as ready to serve traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Start runs the HTTP server until the context is canceled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.SetReady(true)

	slog.Info("server listening", "address", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully drains and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run starts the server with signal-driven graceful shutdown.
func Run(config *Config, clientset client.Interface) error {
	server := NewServer(config, clientset)

	slog.Info("starting server",
		"name", server.config.Name,
		"version", server.config.Version,
		"address", server.httpServer.Addr,
		"rateLimit", float64(server.config.RateLimit),
		"rateLimitBurst", server.config.RateLimitBurst,
		"shutdownTimeout", server.config.ShutdownTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
