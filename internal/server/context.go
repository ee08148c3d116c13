package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/instrumentation"
)

// AuthSession is the Google sign-in state shared by the auth tools.
// *google.Session implements it.
type AuthSession interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) error
	Logout(ctx context.Context) (string, error)
	HasToken() bool
	CurrentUserEmail(ctx context.Context) (string, error)
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics sets the metrics recorder used by tool handlers.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger used by tool handlers.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) {
		sc.auditLogger = a
	}
}

// WithReadOnly disables booking, cancellation and logout.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *booking.Scheduler
	session   AuthSession

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	readOnly    bool

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, scheduler *booking.Scheduler, session AuthSession, opts ...Option) (*ServerContext, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if session == nil {
		return nil, fmt.Errorf("auth session cannot be nil")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		scheduler: scheduler,
		session:   session,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Scheduler returns the appointment scheduler.
func (sc *ServerContext) Scheduler() *booking.Scheduler {
	return sc.scheduler
}

// Session returns the Google sign-in session.
func (sc *ServerContext) Session() AuthSession {
	return sc.session
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
