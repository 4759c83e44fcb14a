package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/jpalmerr/boardclient/dashboard"
	"github.com/jpalmerr/boardclient/internal/backend"
	"github.com/jpalmerr/boardclient/internal/board"
	"github.com/jpalmerr/boardclient/internal/server"
	"github.com/jpalmerr/boardclient/internal/store"
)

const defaultPort = 8080

var (
	// ErrUnknownServer is returned by [BoardClient.SelectServer] for ids
	// absent from the registry.
	ErrUnknownServer = board.ErrUnknownServer

	// ErrNotRunning is returned by operations called before [BoardClient.Start]
	// or after it returned.
	ErrNotRunning = board.ErrNotRunning
)

// BoardClient displays and edits the board of one of several interchangeable
// board servers.
//
// BoardClient owns the board model (selection, snapshot, loading and busy
// flags, retry loop), publishes its state to the dashboard, and serves the
// dashboard over HTTP unless [WithHeadless] is set. It is created with [New]
// and run with [BoardClient.Start]:
//
//	bc, err := boardclient.New(
//	    boardclient.WithServers(servers...),
//	    boardclient.WithPort(8080),
//	)
//	if err != nil {
//	    slog.Error("failed to create board client", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	bc.Start(ctx) // blocks until ctx is cancelled
//
// The operation methods ([BoardClient.SelectServer], [BoardClient.CreateEntry]
// and friends) may be called from any goroutine while Start is running.
type BoardClient struct {
	title    string
	servers  []Server
	port     int
	headless bool
	logger   *slog.Logger

	api   *backend.API
	store *store.MemoryStore
	model *board.Model
}

// New creates a new [BoardClient] with the given options.
//
// At least one server must be configured via [WithServer] or [WithServers].
// Server ids must be unique and the initial server, if set, must be one of
// them. Other options have defaults:
//   - Initial server: the first registered
//   - Retry delay: 1 second
//   - Request timeout: none
//   - Port: 8080
func New(opts ...Option) (*BoardClient, error) {
	cfg := &bcConfig{
		port: defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.servers) == 0 {
		return nil, errors.New("at least one server is required")
	}

	seen := make(map[string]bool, len(cfg.servers))
	modelServers := make([]board.Server, len(cfg.servers))
	for i, s := range cfg.servers {
		if s.id == "" {
			return nil, fmt.Errorf("servers[%d]: server must be created with NewServer", i)
		}
		if seen[s.id] {
			return nil, fmt.Errorf("duplicate server id: %q", s.id)
		}
		seen[s.id] = true
		modelServers[i] = board.Server{ID: s.id, Address: s.address}
	}

	if cfg.initial != "" && !seen[cfg.initial] {
		return nil, fmt.Errorf("initial server %q is not in the registry", cfg.initial)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	extractor := cfg.healthExtractor
	if extractor == nil {
		extractor = DefaultHealthExtractor
	}

	bc := &BoardClient{
		title:    cfg.title,
		servers:  cfg.servers,
		port:     cfg.port,
		headless: cfg.headless,
		logger:   logger,
		api:      backend.NewAPI(backend.NewClient(cfg.requestTimeout)),
		store:    store.NewMemoryStore(),
	}

	health := safeHealth(extractor, logger)
	callbacks := cfg.callbacks

	model, err := board.New(board.Config{
		Servers:    modelServers,
		Initial:    cfg.initial,
		RetryDelay: cfg.retryDelay,
		Backend:    bc.api,
		Store:      bc.store,
		Health: func(status json.RawMessage) string {
			return health(status).String()
		},
		OnSnapshot: func(s board.Snapshot) {
			if len(callbacks) == 0 {
				return
			}
			public := toPublicSnapshot(s, health(s.ServerStatus))
			for _, cb := range callbacks {
				invokeCallbackSafe(cb, public, logger)
			}
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	bc.model = model

	return bc, nil
}

// Start loads the initial board and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is
// cancelled. During execution:
//
//   - The initially selected server's board is fetched immediately
//   - Failed fetches are retried at the configured delay until one succeeds
//   - The dashboard is served on the configured port (unless headless)
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start. A BoardClient can be started once.
func (bc *BoardClient) Start(ctx context.Context) error {
	bc.logger.Info("board client starting", "server_count", len(bc.servers))
	if !bc.headless {
		bc.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", bc.port))
	}

	if ctx.Err() != nil {
		return nil
	}

	bc.model.Start(ctx)

	// cleanup stops the model and releases pooled connections
	cleanup := func() {
		bc.model.Close()
		bc.api.Client().Close()
	}

	if !bc.headless {
		httpServer := server.NewServer(bc.store, bc.model, bc.port, dashboard.Assets, bc.title, bc.logger)
		if err := httpServer.Start(ctx); err != nil {
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	<-ctx.Done()
	cleanup()
	bc.logger.Info("board client stopped")
	return nil
}

// SelectServer switches to server id and reloads the board from it.
// Unknown ids are rejected with [ErrUnknownServer].
func (bc *BoardClient) SelectServer(id string) error {
	return bc.model.SelectServer(id)
}

// Reload cancels any outstanding board fetch and starts a new one.
func (bc *BoardClient) Reload() error {
	return bc.model.Reload()
}

// SetDraft sets the pending value used by [BoardClient.CreateDraft].
func (bc *BoardClient) SetDraft(value string) error {
	return bc.model.SetDraft(value)
}

// CreateEntry adds an entry to the selected server's board.
//
// The mutating operations report whether the request was issued: while
// another one is in flight the call is dropped and false is returned.
// Request failures are not reported; the board is reloaded either way.
func (bc *BoardClient) CreateEntry(value string) (bool, error) {
	return bc.model.CreateEntry(value)
}

// CreateDraft adds the draft value as an entry and clears the draft.
func (bc *BoardClient) CreateDraft() (bool, error) {
	return bc.model.CreateDraft()
}

// UpdateEntry replaces the value of entry id.
func (bc *BoardClient) UpdateEntry(id, value string) (bool, error) {
	return bc.model.UpdateEntry(id, value)
}

// DeleteEntry removes entry id.
func (bc *BoardClient) DeleteEntry(id string) (bool, error) {
	return bc.model.DeleteEntry(id)
}

// CrashServer asks the selected server to simulate a crash.
func (bc *BoardClient) CrashServer() (bool, error) {
	return bc.model.CrashServer()
}

// RecoverServer asks the selected server to recover from a simulated crash.
func (bc *BoardClient) RecoverServer() (bool, error) {
	return bc.model.RecoverServer()
}

// State returns the current view state as published to the dashboard.
func (bc *BoardClient) State() State {
	return toPublicState(bc.store.Get())
}

// Servers returns a copy of the registry.
func (bc *BoardClient) Servers() []Server {
	cp := make([]Server, len(bc.servers))
	copy(cp, bc.servers)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (bc *BoardClient) Port() int {
	return bc.port
}

// State is a read-only copy of the board client's view state.
type State struct {
	Server       string
	Loading      bool
	Busy         bool
	Draft        string
	Entries      []Entry
	ServerStatus []byte
	Health       Health
	Generation   uint64
	LastError    string
}

func toPublicState(v store.ViewState) State {
	s := State{
		Server:       v.Server,
		Loading:      v.Loading,
		Busy:         v.Busy,
		Draft:        v.Draft,
		Entries:      make([]Entry, len(v.Entries)),
		ServerStatus: copyBytes(v.ServerStatus),
		Health:       Health(v.Health),
		Generation:   v.Generation,
	}
	for i, e := range v.Entries {
		s.Entries[i] = Entry{ID: e.ID, Value: e.Value}
	}
	if v.LastError != nil {
		s.LastError = *v.LastError
	}
	return s
}

// toPublicSnapshot converts the model snapshot to the public type.
func toPublicSnapshot(s board.Snapshot, health Health) Snapshot {
	entries := make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = Entry{ID: e.ID, Value: e.Value}
	}
	return Snapshot{
		Server:       s.Server,
		Entries:      entries,
		ServerStatus: copyBytes(s.ServerStatus),
		Health:       health,
		Generation:   s.Generation,
		FetchedAt:    s.FetchedAt,
		Latency:      s.Latency,
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// safeHealth wraps an extractor with panic recovery. A panic is logged with
// a correlation id and yields HealthUnknown.
func safeHealth(extractor HealthExtractor, logger *slog.Logger) func([]byte) Health {
	return func(status []byte) (h Health) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("health extractor panic",
					"correlation_id", uuid.NewString(),
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				h = HealthUnknown
			}
		}()
		return extractor(status)
	}
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"server", snap.Server,
				"generation", snap.Generation,
			)
		}
	}()
	cb(snap)
}
