package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/trustedge/trustedge-core/internal/audit"
	"github.com/trustedge/trustedge-core/internal/auth"
	"github.com/trustedge/trustedge-core/internal/bus"
	"github.com/trustedge/trustedge-core/internal/command"
	"github.com/trustedge/trustedge-core/internal/device"
	"github.com/trustedge/trustedge-core/internal/infrastructure/config"
	"github.com/trustedge/trustedge-core/internal/infrastructure/logging"
	"github.com/trustedge/trustedge-core/internal/presence"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Registry   *device.Registry
	Dispatcher *command.Dispatcher
	Tracker    *presence.Tracker
	Users      auth.UserRepository // optional: login returns 503 when absent
	AuditRepo  audit.Repository    // optional: /audit returns 503 when absent
	Events     *bus.Bus            // optional: WebSocket stream is silent when absent
	Version    string
}

// Server is the HTTP API server for TrustEdge Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	registry   *device.Registry
	dispatcher *command.Dispatcher
	tracker    *presence.Tracker
	users      auth.UserRepository
	auditRepo  audit.Repository
	events     *bus.Bus
	version    string
	server     *http.Server
	hub        *Hub
	tickets    *ticketStore
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}
	if deps.Tracker == nil {
		return nil, fmt.Errorf("presence tracker is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		tracker:    deps.Tracker,
		users:      deps.Users,
		auditRepo:  deps.AuditRepo,
		events:     deps.Events,
		version:    deps.Version,
		tickets:    newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays bus events to connected clients,
// and launches the HTTP listener in a background goroutine. The server
// is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Periodic ticket cleanup to keep the store bounded.
	go s.cleanTicketsLoop(srvCtx)

	// Relay registry and command events to WebSocket subscribers.
	if s.events != nil {
		go s.relayEvents(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// relayEvents forwards bus events to the WebSocket hub until the server
// context is cancelled. Each event goes to the channel "device.{kind}".
func (s *Server) relayEvents(ctx context.Context) {
	sub := s.events.SubscribeBuffered(wsSendBufferSize)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			s.hub.Broadcast("device."+string(event.Kind), event)
		}
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop background goroutines (hub, relay, ticket cleanup).
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
