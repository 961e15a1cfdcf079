package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mwhitfield/leapgate/internal/accessory"
	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/platform"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// BridgeReporter exposes bridge state to the API. Satisfied by the
// platform.
type BridgeReporter interface {
	Bridges() []platform.BridgeStatus
	Unconfigured() []string
}

// Deps carries the collaborators the API server needs.
type Deps struct {
	Config    config.APIConfig
	WebSocket config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Index     *accessory.Index
	Bridges   BridgeReporter
	Hub       *Hub
	Version   string

	// Health reports whether the backing store is reachable. nil
	// means always healthy.
	Health func(ctx context.Context) error
}

// Server is the HTTP API surface: health, auth, accessory and bridge
// inspection, and the WebSocket event stream.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// New builds the API server and its router.
func New(deps Deps) *Server {
	s := &Server{logger: deps.Logger}

	addr := net.JoinHostPort(deps.Config.Host, strconv.Itoa(deps.Config.Port))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      newRouter(deps),
		ReadTimeout:  time.Duration(deps.Config.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(deps.Config.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(deps.Config.Timeouts.Idle) * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server failed", "error", err)
		}
	}()
}

// Close drains in-flight requests and shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}
