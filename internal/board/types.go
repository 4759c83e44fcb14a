package board

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/boardclient/internal/backend"
	"github.com/jpalmerr/boardclient/internal/store"
)

// DefaultRetryDelay is the fixed delay before a failed list fetch is retried.
const DefaultRetryDelay = 1000 * time.Millisecond

var (
	// ErrUnknownServer is returned when selecting an id absent from the registry.
	ErrUnknownServer = errors.New("unknown server")

	// ErrNotRunning is returned by operations on a model that was never
	// started or has been closed.
	ErrNotRunning = errors.New("board model is not running")
)

// Server is one registry entry: a logical id and its network address.
type Server struct {
	ID      string
	Address string
}

// Snapshot is the last successfully fetched board. It is replaced wholesale
// on each successful fetch.
type Snapshot struct {
	Server       string
	Entries      []backend.Entry
	ServerStatus json.RawMessage
	Generation   uint64
	FetchedAt    time.Time
	Latency      time.Duration
}

// Op names a mutating operation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpCrash   Op = "crash"
	OpRecover Op = "recover"
)

// Backend is the transport used by the model. [backend.API] implements it.
type Backend interface {
	ListEntries(ctx context.Context, address string) (backend.Board, backend.Response, error)
	CreateEntry(ctx context.Context, address, value string) backend.Response
	UpdateEntry(ctx context.Context, address, id, value string) backend.Response
	DeleteEntry(ctx context.Context, address, id string) backend.Response
	Crash(ctx context.Context, address string) backend.Response
	Recover(ctx context.Context, address string) backend.Response
}

// HealthFunc summarizes an opaque server status for display.
type HealthFunc func(status json.RawMessage) string

// Config holds the dependencies and settings of a [Model].
type Config struct {
	// Servers is the registry in display order. Required, ids unique.
	Servers []Server

	// Initial is the initially selected server id. Defaults to the first server.
	Initial string

	// RetryDelay is the delay before retrying a failed list fetch.
	// Defaults to [DefaultRetryDelay].
	RetryDelay time.Duration

	// Backend performs the HTTP calls. Required.
	Backend Backend

	// Store receives the view state after every transition. Optional.
	Store store.Store

	// Health derives the health label from a server status. Optional.
	Health HealthFunc

	// OnSnapshot is called on the model goroutine after every applied
	// snapshot. It must not block.
	OnSnapshot func(Snapshot)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}
