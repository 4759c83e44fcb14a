package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/boardclient/internal/backend"
	"github.com/jpalmerr/boardclient/internal/store"
)

const healthUnknown = "unknown"

// Model is the board client view-model.
//
// Model tracks the selected server, fetches and holds the board snapshot,
// gates mutating operations behind a busy flag and retries failed list
// fetches. All state is owned by a single goroutine started by
// [Model.Start]; public methods hand closures to that goroutine and wait
// for them to run, and HTTP completions and retry timers are delivered the
// same way. This keeps the model single-writer without locks on its state.
//
// Every list fetch carries a generation number. Completions and retry timers
// from an older generation are discarded, so only the most recently issued
// fetch can replace the snapshot.
type Model struct {
	servers    []Server
	addresses  map[string]string
	initial    string
	retryDelay time.Duration
	api        Backend
	store      store.Store
	health     HealthFunc
	onSnapshot func(Snapshot)
	logger     *slog.Logger

	queue    chan func()
	done     chan struct{}
	wg       sync.WaitGroup
	inflight sync.WaitGroup

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	stopped   bool
	closeOnce sync.Once

	// owned by the model goroutine
	selected    string
	loading     bool
	busy        bool
	draft       string
	snapshot    *Snapshot
	generation  uint64
	cancelFetch context.CancelFunc
	retry       *time.Timer
	lastErr     error
}

// New validates cfg and creates a [Model]. The model does nothing until
// [Model.Start] is called.
func New(cfg Config) (*Model, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("at least one server is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend is required")
	}

	addresses := make(map[string]string, len(cfg.Servers))
	servers := make([]Server, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if s.ID == "" {
			return nil, fmt.Errorf("servers[%d]: id is required", i)
		}
		if s.Address == "" {
			return nil, fmt.Errorf("servers[%d] (%s): address is required", i, s.ID)
		}
		if _, dup := addresses[s.ID]; dup {
			return nil, fmt.Errorf("duplicate server id: %q", s.ID)
		}
		addresses[s.ID] = s.Address
		servers[i] = s
	}

	initial := cfg.Initial
	if initial == "" {
		initial = servers[0].ID
	}
	if _, ok := addresses[initial]; !ok {
		return nil, fmt.Errorf("initial server: %w: %q", ErrUnknownServer, initial)
	}

	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}
	if retryDelay < 0 {
		return nil, errors.New("retry delay must be positive")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Model{
		servers:    servers,
		addresses:  addresses,
		initial:    initial,
		retryDelay: retryDelay,
		api:        cfg.Backend,
		store:      cfg.Store,
		health:     cfg.Health,
		onSnapshot: cfg.OnSnapshot,
		logger:     logger,
		queue:      make(chan func()),
		done:       make(chan struct{}),
		selected:   initial,
	}, nil
}

// Servers returns a copy of the registry.
func (m *Model) Servers() []Server {
	cp := make([]Server, len(m.servers))
	copy(cp, m.servers)
	return cp
}

// Start launches the model goroutine and issues the initial board load.
//
// Start is non-blocking and idempotent. The model stops when ctx is
// cancelled or [Model.Close] is called. If Close was called first, Start is
// a no-op.
func (m *Model) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	loopCtx := m.ctx
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(loopCtx)

	m.post(m.reload)
}

// Close stops the model, cancels the outstanding list fetch and any pending
// retry, and waits for in-flight requests to finish. Safe to call multiple
// times and before Start.
func (m *Model) Close() {
	m.mu.Lock()
	if !m.stopped {
		m.stopped = true
		if m.cancel != nil {
			m.cancel()
		}
	}
	started := m.started
	m.mu.Unlock()

	if !started {
		m.closeOnce.Do(func() { close(m.done) })
		return
	}

	m.wg.Wait()
	m.inflight.Wait()
}

// Done returns a channel that is closed once the model goroutine exits.
func (m *Model) Done() <-chan struct{} {
	return m.done
}

// run executes queued closures until ctx is cancelled.
func (m *Model) run(ctx context.Context) {
	defer m.wg.Done()
	defer m.closeOnce.Do(func() { close(m.done) })
	defer m.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-m.queue:
			fn()
		}
	}
}

// teardown releases the fetch and the retry timer. Runs on the model goroutine.
func (m *Model) teardown() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.logger.Debug("board model stopped", "server", m.selected)
}

// call runs fn on the model goroutine and waits for it to return.
func (m *Model) call(fn func()) error {
	m.mu.Lock()
	running := m.started && !m.stopped
	m.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	finished := make(chan struct{})
	select {
	case m.queue <- func() { fn(); close(finished) }:
	case <-m.done:
		return ErrNotRunning
	}
	<-finished
	return nil
}

// post queues fn for the model goroutine without waiting. Dropped once the
// model has stopped.
func (m *Model) post(fn func()) {
	select {
	case m.queue <- fn:
	case <-m.done:
	}
}

// SelectServer records a new selection and reloads the board from it.
//
// Ids absent from the registry are rejected with [ErrUnknownServer]; the
// current selection and state are left untouched.
func (m *Model) SelectServer(id string) error {
	if _, ok := m.addresses[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownServer, id)
	}
	return m.call(func() {
		m.logger.Debug("changed server", "server", id)
		m.selected = id
		m.reload()
	})
}

// Reload supersedes any outstanding list fetch with a new one.
func (m *Model) Reload() error {
	return m.call(m.reload)
}

// SetDraft replaces the draft entry value.
func (m *Model) SetDraft(value string) error {
	return m.call(func() {
		m.draft = value
		m.publish()
	})
}

// CreateEntry posts a new entry. It reports whether the request was issued;
// while another mutating request is in flight the call is dropped.
func (m *Model) CreateEntry(value string) (bool, error) {
	return m.mutate(OpCreate, "", value)
}

// CreateDraft posts the current draft value as a new entry and clears the
// draft once the request is issued.
func (m *Model) CreateDraft() (bool, error) {
	var issued bool
	err := m.call(func() {
		issued = m.startMutation(OpCreate, "", m.draft)
		if issued {
			m.draft = ""
			m.publish()
		}
	})
	return issued, err
}

// UpdateEntry replaces the value of entry id.
func (m *Model) UpdateEntry(id, value string) (bool, error) {
	return m.mutate(OpUpdate, id, value)
}

// DeleteEntry removes entry id.
func (m *Model) DeleteEntry(id string) (bool, error) {
	return m.mutate(OpDelete, id, "")
}

// CrashServer asks the selected server to simulate a crash.
func (m *Model) CrashServer() (bool, error) {
	return m.mutate(OpCrash, "", "")
}

// RecoverServer asks the selected server to recover.
func (m *Model) RecoverServer() (bool, error) {
	return m.mutate(OpRecover, "", "")
}

// State returns the current view state.
func (m *Model) State() (store.ViewState, error) {
	var state store.ViewState
	err := m.call(func() { state = m.viewState() })
	return state, err
}

func (m *Model) mutate(op Op, id, value string) (bool, error) {
	var issued bool
	err := m.call(func() { issued = m.startMutation(op, id, value) })
	return issued, err
}

// reload cancels the previous fetch and pending retry, then issues a new
// fetch under the next generation. Runs on the model goroutine.
func (m *Model) reload() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}

	m.generation++
	gen := m.generation
	server := m.selected
	address := m.addresses[server]
	m.loading = true

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFetch = cancel

	m.logger.Debug("reloading board", "server", server, "generation", gen)
	m.publish()

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		b, resp, err := m.api.ListEntries(ctx, address)
		m.post(func() { m.fetchDone(gen, server, b, resp, err) })
	}()
}

// fetchDone applies a list fetch completion. Runs on the model goroutine.
func (m *Model) fetchDone(gen uint64, server string, b backend.Board, resp backend.Response, err error) {
	if gen != m.generation {
		m.logger.Debug("discarding stale board fetch",
			"server", server,
			"generation", gen,
			"current_generation", m.generation,
		)
		return
	}
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("board fetch cancelled", "server", server, "generation", gen)
			return
		}
		m.lastErr = err
		m.logger.Warn("board fetch failed, retrying",
			"server", server,
			"generation", gen,
			"request_id", resp.RequestID,
			"status_code", resp.StatusCode,
			"retry_in", m.retryDelay.String(),
			"error", err.Error(),
		)
		m.retry = time.AfterFunc(m.retryDelay, func() {
			m.post(func() { m.retryFired(gen) })
		})
		m.publish()
		return
	}

	snap := Snapshot{
		Server:       server,
		Entries:      b.Entries,
		ServerStatus: b.ServerStatus,
		Generation:   gen,
		FetchedAt:    time.Now(),
		Latency:      resp.Latency,
	}
	m.snapshot = &snap
	m.loading = false
	m.lastErr = nil

	m.logger.Debug("board loaded",
		"server", server,
		"generation", gen,
		"entries", len(b.Entries),
		"request_id", resp.RequestID,
		"latency_ms", resp.Latency.Milliseconds(),
	)
	m.publish()

	if m.onSnapshot != nil {
		m.onSnapshot(copySnapshot(snap))
	}
}

// retryFired reissues the fetch unless a newer generation took over.
func (m *Model) retryFired(gen uint64) {
	if gen != m.generation {
		return
	}
	m.retry = nil
	m.reload()
}

// startMutation issues a mutating request unless one is already in flight.
// Runs on the model goroutine.
func (m *Model) startMutation(op Op, id, value string) bool {
	if m.busy {
		m.logger.Debug("request dropped while busy", "op", string(op), "server", m.selected)
		return false
	}
	m.busy = true
	server := m.selected
	address := m.addresses[server]
	ctx := m.ctx

	m.logger.Debug("sending request", "op", string(op), "server", server, "entry_id", id)
	m.publish()

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		resp := m.send(ctx, op, address, id, value)
		m.post(func() { m.mutationDone(op, server, resp) })
	}()
	return true
}

func (m *Model) send(ctx context.Context, op Op, address, id, value string) backend.Response {
	switch op {
	case OpCreate:
		return m.api.CreateEntry(ctx, address, value)
	case OpUpdate:
		return m.api.UpdateEntry(ctx, address, id, value)
	case OpDelete:
		return m.api.DeleteEntry(ctx, address, id)
	case OpCrash:
		return m.api.Crash(ctx, address)
	case OpRecover:
		return m.api.Recover(ctx, address)
	default:
		return backend.Response{Error: fmt.Errorf("unknown op %q", op)}
	}
}

// mutationDone clears busy and forces a reload, whatever the outcome.
func (m *Model) mutationDone(op Op, server string, resp backend.Response) {
	m.busy = false

	attrs := []any{
		"op", string(op),
		"server", server,
		"request_id", resp.RequestID,
		"status_code", resp.StatusCode,
		"latency_ms", resp.Latency.Milliseconds(),
	}
	if resp.Error != nil {
		m.logger.Warn("request completed with error", append(attrs, "error", resp.Error.Error())...)
	} else {
		m.logger.Debug("request completed", attrs...)
	}

	m.reload()
}

// viewState renders the current state for publication.
func (m *Model) viewState() store.ViewState {
	servers := make([]store.ServerInfo, len(m.servers))
	for i, s := range m.servers {
		servers[i] = store.ServerInfo{ID: s.ID, Address: s.Address}
	}

	state := store.ViewState{
		Server:     m.selected,
		Servers:    servers,
		Loading:    m.loading,
		Busy:       m.busy,
		Draft:      m.draft,
		Entries:    []store.Entry{},
		Health:     healthUnknown,
		Generation: m.generation,
		UpdatedAt:  time.Now(),
	}

	if m.snapshot != nil {
		state.Entries = make([]store.Entry, len(m.snapshot.Entries))
		for i, e := range m.snapshot.Entries {
			state.Entries[i] = store.Entry{ID: e.ID, Value: e.Value}
		}
		state.ServerStatus = m.snapshot.ServerStatus
		if m.health != nil {
			state.Health = m.health(m.snapshot.ServerStatus)
		}
	}
	if m.lastErr != nil {
		msg := m.lastErr.Error()
		state.LastError = &msg
	}

	return state.Clone()
}

func (m *Model) publish() {
	if m.store == nil {
		return
	}
	m.store.Update(m.viewState())
}

func copySnapshot(s Snapshot) Snapshot {
	s.Entries = append([]backend.Entry(nil), s.Entries...)
	if s.ServerStatus != nil {
		s.ServerStatus = append([]byte(nil), s.ServerStatus...)
	}
	return s
}
