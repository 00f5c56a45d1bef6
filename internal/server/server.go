// Package server orchestrates all components: COMMS client, optional DB, registry, dispatcher, HTTP health.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/type-mapper/internal/catalog"
	"github.com/morezero/type-mapper/internal/config"
	"github.com/morezero/type-mapper/pkg/bootstrap"
	"github.com/morezero/type-mapper/pkg/commsutil"
	"github.com/morezero/type-mapper/pkg/db"
	"github.com/morezero/type-mapper/pkg/dispatcher"
	"github.com/morezero/type-mapper/pkg/events"
	"github.com/morezero/type-mapper/pkg/mapper"
	"github.com/morezero/type-mapper/pkg/registry"
)

const logPrefix = "server:server"

// resolutionStore is the part of db.Repository the server writes to.
type resolutionStore interface {
	Ping(ctx context.Context) error
	RecordResolution(ctx context.Context, params db.RecordResolutionParams) (*db.Resolution, error)
	RecordCapability(ctx context.Context, params db.RecordCapabilityParams) error
}

// Server is the mapperd orchestrator.
type Server struct {
	cfg        *config.Config
	catalog    *bootstrap.ResolvedCatalog
	nc         *comms.Conn
	pool       *pgxpool.Pool
	store      resolutionStore
	publisher  events.EventPublisher
	reg        *registry.Registry
	disp       *dispatcher.Dispatcher
	sub        *comms.Subscription
	httpServer *http.Server
	ready      atomic.Bool
	// observers tracks in-flight resolution side effects.
	observers sync.WaitGroup
}

type newServerParams struct {
	Config  *config.Config
	Catalog *bootstrap.ResolvedCatalog
	// Conn may be nil when nothing is published or subscribed (tests).
	Conn *comms.Conn
	// Store is optional; nil disables the resolution catalog.
	Store resolutionStore
	// Publisher defaults to a CommsPublisher on Conn, or a no-op without one.
	Publisher events.EventPublisher
}

func newServer(params newServerParams) (*Server, error) {
	s := &Server{
		cfg:       params.Config,
		catalog:   params.Catalog,
		nc:        params.Conn,
		store:     params.Store,
		publisher: params.Publisher,
	}
	if s.catalog == nil {
		s.catalog = bootstrap.CreateResolvedCatalog(bootstrap.GetDefaultCatalogConfig())
	}
	if s.publisher == nil {
		if s.nc != nil {
			s.publisher = events.NewCommsPublisher(s.nc, &events.CommsPublisherOpts{
				GlobalSubject: s.eventSubject(),
				Pattern:       s.eventPattern(),
			})
		} else {
			s.publisher = &events.NoOpPublisher{}
		}
	}

	s.reg = registry.New(mapper.WithOnResolved(s.onResolved))
	if err := catalog.Register(s.reg); err != nil {
		return nil, fmt.Errorf("%s - failed to register catalog strategies: %w", logPrefix, err)
	}
	s.disp = dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Registry: s.reg,
		Catalog:  s.catalog,
		Health:   s.componentHealth,
	})
	return s, nil
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Starting %s", logPrefix, cfg.COMMSName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Load catalog
	catalogCfg, err := bootstrap.LoadCatalogConfig(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load catalog config: %w", logPrefix, err)
	}
	resolved := bootstrap.CreateResolvedCatalog(catalogCfg)

	// Step 2: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	// Step 3: Connect to database (optional)
	var pool *pgxpool.Pool
	var store resolutionStore
	if cfg.DatabaseURL != "" {
		pool, err = openDatabase(ctx, cfg)
		if err != nil {
			nc.Close()
			return err
		}
		store = db.NewRepository(pool)
	} else {
		slog.Info(fmt.Sprintf("%s - DATABASE_URL not set, resolution catalog disabled", logPrefix))
	}

	// Step 4: Registry, dispatcher, warmup, subscription
	s, err := newServer(newServerParams{Config: cfg, Catalog: resolved, Conn: nc, Store: store})
	if err != nil {
		closeAll(nc, pool)
		return err
	}
	s.pool = pool
	if err := s.start(ctx); err != nil {
		closeAll(nc, pool)
		return err
	}

	// Step 5: Start HTTP health server
	s.listenHTTP()
	slog.Info(fmt.Sprintf("%s - %s is ready", logPrefix, cfg.COMMSName))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	s.shutdown(ctx)
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	if !cfg.RunMigrations {
		return pool, nil
	}

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
	}
	applied, err := db.RunMigrations(ctx, pool, migrations)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Applied %d migration(s)", logPrefix, len(applied)))
	return pool, nil
}

func closeAll(nc *comms.Conn, pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
	nc.Close()
}

// start records capabilities, resolves the warmup pairs and subscribes to the
// mapper subject. The server reports ready once it returns nil.
func (s *Server) start(ctx context.Context) error {
	s.recordCapabilities(ctx)

	if _, err := s.warmup(); err != nil {
		return err
	}

	subject := s.mapperSubject()
	sub, err := s.nc.Subscribe(subject, func(msg *comms.Msg) {
		if data := s.handleRequest(ctx, msg.Data); data != nil {
			if err := msg.Respond(data); err != nil {
				slog.Error(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	s.sub = sub
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, subject))

	s.ready.Store(true)
	return nil
}

func (s *Server) shutdown(ctx context.Context) {
	s.ready.Store(false)
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.HealthCheckTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
		}
	}
	s.observers.Wait()
	if s.nc != nil {
		s.nc.Drain()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Server) mapperSubject() string {
	if s.cfg.MapperSubject != "" {
		return s.cfg.MapperSubject
	}
	return commsutil.SubjectMapper
}

func (s *Server) eventSubject() string {
	if s.cfg.EventSubject != "" {
		return s.cfg.EventSubject
	}
	if subject := s.catalog.GlobalSubject(); subject != "" {
		return subject
	}
	return commsutil.SubjectResolvedEvent
}

// eventPattern returns the granular event subject pattern. An explicit
// MAPPER_EVENT_SUBJECT moves the granular subjects below it.
func (s *Server) eventPattern() string {
	if s.cfg.EventSubject != "" {
		return commsutil.ResolvedSubjectPattern(s.cfg.EventSubject)
	}
	return s.catalog.EventPattern()
}

// onResolved runs on the resolving goroutine after the cache stores a new
// strategy. It only captures the event; publishing and recording happen on
// their own goroutine so the first Map of a pair does no I/O.
func (s *Server) onResolved(key mapper.TypePairKey, strategy *mapper.Strategy) {
	event := &events.ResolvedEvent{
		Service:     s.cfg.COMMSName,
		Source:      key.Source().String(),
		Destination: key.Destination().String(),
		Capability:  strategy.Capability().String(),
		Operation:   strategy.Operation().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	s.observers.Add(1)
	go func() {
		defer s.observers.Done()
		s.emitResolved(event)
	}()
}

// emitResolved publishes event and records it in the resolution catalog.
// Failures are logged; mapping never fails because of them.
func (s *Server) emitResolved(event *events.ResolvedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HealthCheckTimeout)
	defer cancel()

	pair := event.Source + " -> " + event.Destination
	if err := s.publisher.PublishResolved(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish resolution of %s: %v", logPrefix, pair, err))
	}

	if s.store == nil {
		return
	}
	if _, err := s.store.RecordResolution(ctx, db.RecordResolutionParams{
		Service:         event.Service,
		SourceType:      event.Source,
		DestinationType: event.Destination,
		Capability:      event.Capability,
		Operation:       event.Operation,
	}); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to record resolution of %s: %v", logPrefix, pair, err))
	}
}

func (s *Server) recordCapabilities(ctx context.Context) {
	if s.store == nil {
		return
	}
	for _, c := range s.reg.Capabilities() {
		if err := s.store.RecordCapability(ctx, db.RecordCapabilityParams{
			Service:         s.cfg.COMMSName,
			Capability:      c.Capability,
			SourceType:      c.Source,
			DestinationType: c.Destination,
			Lifetime:        c.Lifetime,
		}); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to record capability %s: %v", logPrefix, c.Capability, err))
		}
	}
}

// warmup resolves the catalog's warmup pairs. Pairs naming unregistered types
// are skipped with a warning; a pair that cannot be resolved is an error.
func (s *Server) warmup() (int, error) {
	n := 0
	for _, pair := range s.catalog.WarmupPairs() {
		st, ok := s.reg.TypeByName(pair.Source)
		if !ok {
			slog.Warn(fmt.Sprintf("%s - warmup: unknown source type %s", logPrefix, pair.Source))
			continue
		}
		dt, ok := s.reg.TypeByName(pair.Destination)
		if !ok {
			slog.Warn(fmt.Sprintf("%s - warmup: unknown destination type %s", logPrefix, pair.Destination))
			continue
		}
		if _, err := s.reg.Cache().Resolve(st, dt); err != nil {
			return n, fmt.Errorf("%s - warmup %s -> %s: %w", logPrefix, pair.Source, pair.Destination, err)
		}
		n++
	}
	slog.Info(fmt.Sprintf("%s - Warmed up %d pair(s)", logPrefix, n))
	return n, nil
}

// componentHealth reports COMMS and database state for the health method.
func (s *Server) componentHealth(ctx context.Context) map[string]string {
	components := map[string]string{}
	if s.nc != nil {
		if s.nc.IsConnected() {
			components["comms"] = "ok"
		} else {
			components["comms"] = "disconnected"
		}
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			components["database"] = "error: " + err.Error()
		} else {
			components["database"] = "ok"
		}
	}
	return components
}

// handleRequest decodes a COMMS request, dispatches it and returns the
// encoded response. It returns nil only when the response cannot be encoded.
func (s *Server) handleRequest(ctx context.Context, data []byte) []byte {
	var req dispatcher.MapperRequest
	var resp *dispatcher.MapperResponse
	if err := commsutil.DecodePayload(data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		resp = &dispatcher.MapperResponse{
			Ok: false,
			Error: &dispatcher.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "Failed to decode request",
			},
		}
	} else {
		reqCtx, cancel := s.requestContext(ctx, &req)
		defer cancel()
		resp = s.disp.Dispatch(reqCtx, &req)
	}

	out, err := commsutil.EncodePayload(resp)
	if err == nil {
		return out
	}
	slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	out, err = commsutil.EncodePayload(&dispatcher.MapperResponse{
		ID: resp.ID,
		Ok: false,
		Error: &dispatcher.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to encode response",
		},
	})
	if err != nil {
		return nil
	}
	return out
}

// requestContext bounds a request by the configured timeout, or by the
// caller's ctx.timeoutMs when that is shorter.
func (s *Server) requestContext(ctx context.Context, req *dispatcher.MapperRequest) (context.Context, context.CancelFunc) {
	timeout := s.cfg.RequestTimeout
	if req.Ctx != nil && req.Ctx.TimeoutMs > 0 {
		if d := time.Duration(req.Ctx.TimeoutMs) * time.Millisecond; d < timeout {
			timeout = d
		}
	}
	return context.WithTimeout(ctx, timeout)
}

// --- HTTP ---

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", s.handleReady())
	mux.HandleFunc("/pairs", s.handlePairs())
	return mux
}

func (s *Server) listenHTTP() {
	addr := s.cfg.ListenAddr()
	s.httpServer = &http.Server{Addr: addr, Handler: s.routes()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		resp := s.disp.Dispatch(ctx, &dispatcher.MapperRequest{ID: "http-health", Method: "health"})
		if !resp.Ok {
			writeJSON(w, http.StatusServiceUnavailable, resp.Error)
			return
		}
		status := http.StatusOK
		if h, ok := resp.Result.(*dispatcher.HealthResult); ok && h.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp.Result)
	}
}

func (s *Server) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handlePairs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := s.disp.Dispatch(r.Context(), &dispatcher.MapperRequest{ID: "http-pairs", Method: "pairs"})
		if !resp.Ok {
			writeJSON(w, http.StatusServiceUnavailable, resp.Error)
			return
		}
		writeJSON(w, http.StatusOK, resp.Result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", logPrefix, err))
	}
}
