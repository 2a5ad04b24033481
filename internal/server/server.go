package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/thruflo/sortvis/internal/dataset"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/logging"
	"github.com/thruflo/sortvis/internal/stream"
)

// CustomDataSet labels history records of runs over values supplied by a
// client rather than generated from a preset.
const CustomDataSet = "custom"

// Server drives one engine on behalf of HTTP and websocket clients.
type Server struct {
	port    int
	engine  *engine.Engine
	events  *stream.Broadcaster
	history *history.Store
	assets  fs.FS
	limiter *rateLimiter
	log     *logging.Logger

	defaultDataSet dataset.Type
	defaultSize    int

	// ctx bounds every run the server starts; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	unsubscribe func()

	// HTTP server
	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	started  bool

	dataSet string
	runs    sync.WaitGroup
}

// Config holds server configuration options.
type Config struct {
	Port   int
	Engine *engine.Engine

	// Publishers receive every event in addition to websocket clients.
	Publishers []stream.Publisher

	// History records finished runs when set.
	History *history.Store

	// Assets is served at /. Nil disables the viewer.
	Assets fs.FS

	// DataSet and DataSize are used by reset requests that name neither
	// values nor a data set.
	DataSet  string
	DataSize int

	RateLimit RateLimitConfig
	Logger    *logging.Logger
}

// NewServer creates a Server and subscribes it to the engine's frames.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}

	defaultDataSet := dataset.Sample
	if cfg.DataSet != "" {
		t, err := dataset.ParseType(cfg.DataSet)
		if err != nil {
			return nil, err
		}
		defaultDataSet = t
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	log = log.With("component", "server")

	opts := []stream.BroadcasterOption{stream.WithLogger(log)}
	for _, p := range cfg.Publishers {
		opts = append(opts, stream.WithPublisher(p))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:           cfg.Port,
		engine:         cfg.Engine,
		events:         stream.NewBroadcaster(opts...),
		history:        cfg.History,
		assets:         cfg.Assets,
		limiter:        newRateLimiter(cfg.RateLimit),
		log:            log,
		defaultDataSet: defaultDataSet,
		defaultSize:    cfg.DataSize,
		ctx:            ctx,
		cancel:         cancel,
	}
	s.unsubscribe = s.engine.Subscribe(s.events)
	return s, nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Events returns the broadcaster carrying the engine's frames.
func (s *Server) Events() *stream.Broadcaster {
	return s.events
}

// apiRoute is one endpoint under /api. Limited routes sit behind the
// rate limiter.
type apiRoute struct {
	path    string
	method  string
	handler http.HandlerFunc
	limited bool
}

func (s *Server) apiRoutes() []apiRoute {
	return []apiRoute{
		{path: "/state", method: http.MethodGet, handler: s.handleState},
		{path: "/algorithms", method: http.MethodGet, handler: s.handleAlgorithms},
		{path: "/datasets", method: http.MethodGet, handler: s.handleDataSets},
		{path: "/runs", method: http.MethodGet, handler: s.handleRuns},
		{path: "/runs/{id}", method: http.MethodGet, handler: s.handleRun},
		{path: "/reset", method: http.MethodPost, handler: s.handleReset, limited: true},
		{path: "/run", method: http.MethodPost, handler: s.handleStartRun, limited: true},
		{path: "/cancel", method: http.MethodPost, handler: s.handleCancel, limited: true},
	}
}

// Handler returns the HTTP handler with every route installed.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	routes := s.apiRoutes()
	for _, rt := range routes {
		var h http.Handler = rt.handler
		if rt.limited {
			h = s.rateLimit(h)
		}
		api.Handle(rt.path, h).Methods(rt.method)
	}
	// Sibling routes in a subrouter reset mux's method mismatch, so each
	// path gets an explicit 405 route after all the method routes.
	for _, rt := range routes {
		api.Handle(rt.path, methodNotAllowed(rt.method))
	}

	r.HandleFunc("/ws", s.handleWebsocket)

	if s.assets != nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(s.assets)))
	}
	return r
}

// Start starts the HTTP server.
// The server runs until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()
	go s.cleanupLimiter(ctx)

	s.log.Info("listening", "addr", listener.Addr().String())
	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, cancels the active run and waits
// for it to be recorded.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.cancel()
	s.runs.Wait()
	s.unsubscribe()
	s.events.Close()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.started = false
	return nil
}

// Close releases the engine subscription and cancels any run. Use it for
// servers that were never started, such as those behind httptest.
func (s *Server) Close() {
	s.cancel()
	s.runs.Wait()
	s.unsubscribe()
	s.events.Close()
}

// cleanupLimiter periodically forgets idle clients of the rate limiter.
func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.limiter.cleanup()
		}
	}
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// reset loads values, or generates a data set when values is empty.
// A zero seed picks one from the clock.
func (s *Server) reset(values []int, dataSet string, size int, seed int64) error {
	label := CustomDataSet
	if len(values) == 0 {
		t := s.defaultDataSet
		if dataSet != "" {
			parsed, err := dataset.ParseType(dataSet)
			if err != nil {
				return fmt.Errorf("%w: %v", engine.ErrInvalidInput, err)
			}
			t = parsed
		}
		if size == 0 && t == s.defaultDataSet {
			size = s.defaultSize
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		generated, err := dataset.Generate(t, dataset.Options{Size: size, Seed: seed})
		if err != nil {
			return fmt.Errorf("%w: %v", engine.ErrInvalidInput, err)
		}
		values = generated
		label = string(t)
	}

	if err := s.engine.Reset(values); err != nil {
		return err
	}

	s.mu.Lock()
	s.dataSet = label
	s.mu.Unlock()

	s.events.Broadcast(stream.MustNewEvent(stream.MessageTypeSnapshot, stream.NewSnapshotEvent(s.engine.Snapshot())))
	s.log.Debug("reset", "data_set", label, "length", len(values))
	return nil
}

// startRun starts alg and records the run in history once it finishes.
func (s *Server) startRun(alg engine.Algorithm) (*engine.Handle, error) {
	startedAt := time.Now()
	h, err := s.engine.Run(s.ctx, alg)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	label := s.dataSet
	s.mu.RUnlock()

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		result := h.Wait()
		if s.history == nil {
			return
		}
		rec := history.RecordFromResult(result, label, startedAt, time.Now())
		if err := s.history.Record(rec); err != nil {
			s.log.Warn("failed to record run", "run", result.RunID, "error", err)
		}
	}()
	return h, nil
}

// cancelRun cancels the active run and returns its ID, or "".
func (s *Server) cancelRun() string {
	if h := s.engine.CancelActive(); h != nil {
		return h.ID()
	}
	return ""
}
