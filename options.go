package boardclient

import (
	"errors"
	"log/slog"
	"time"
)

// bcConfig holds mutable state during BoardClient construction.
type bcConfig struct {
	title           string
	servers         []Server
	initial         string
	retryDelay      time.Duration
	requestTimeout  time.Duration
	port            int
	headless        bool
	logger          *slog.Logger
	healthExtractor HealthExtractor
	callbacks       []func(Snapshot)
}

// Option is a function that configures a [BoardClient] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithServer], [WithServers], [WithInitialServer],
// [WithRetryDelay], [WithRequestTimeout], [WithPort], [WithHeadless],
// [WithLogger], [WithHealthExtractor], [WithSnapshotCallback], [WithTitle].
type Option func(*bcConfig) error

// WithServer appends a single [Server] to the registry.
//
// Can be called multiple times; registry order is the order of the calls.
// At least one server must be configured for [New] to succeed.
func WithServer(s Server) Option {
	return func(cfg *bcConfig) error {
		cfg.servers = append(cfg.servers, s)
		return nil
	}
}

// WithServers appends several servers to the registry, e.g. the output of
// [NewServerGrid].
func WithServers(servers ...Server) Option {
	return func(cfg *bcConfig) error {
		cfg.servers = append(cfg.servers, servers...)
		return nil
	}
}

// WithInitialServer sets the id selected at startup.
// Defaults to the first server of the registry.
func WithInitialServer(id string) Option {
	return func(cfg *bcConfig) error {
		if id == "" {
			return errors.New("initial server id cannot be empty")
		}
		cfg.initial = id
		return nil
	}
}

// WithRetryDelay sets the fixed delay before a failed board fetch is
// retried. Defaults to one second.
//
// Returns an error if the duration is zero or negative.
func WithRetryDelay(d time.Duration) Option {
	return func(cfg *bcConfig) error {
		if d <= 0 {
			return errors.New("retry delay must be positive")
		}
		cfg.retryDelay = d
		return nil
	}
}

// WithRequestTimeout bounds every request to the board server.
//
// By default requests have no timeout: a server that never answers keeps
// the board loading. A timed-out fetch counts as a failure and is retried.
//
// Returns an error if the duration is negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *bcConfig) error {
		if d < 0 {
			return errors.New("request timeout cannot be negative")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *bcConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithHeadless disables the dashboard server. The board model still runs
// and is driven through the [BoardClient] methods.
func WithHeadless() Option {
	return func(cfg *bcConfig) error {
		cfg.headless = true
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the BoardClient instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *bcConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHealthExtractor sets how server_status is summarized.
// Defaults to [DefaultHealthExtractor]. Nil extractors are ignored.
func WithHealthExtractor(extractor HealthExtractor) Option {
	return func(cfg *bcConfig) error {
		if extractor != nil {
			cfg.healthExtractor = extractor
		}
		return nil
	}
}

// WithSnapshotCallback registers a function called after every applied
// board snapshot. Stale or failed fetches never reach callbacks.
//
// Multiple callbacks run in registration order. Callbacks run on the board
// model's goroutine and must not block or call back into the BoardClient;
// dispatch longer work to a separate goroutine. Panics are recovered and
// logged.
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *bcConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
// If not specified, defaults to "Board".
func WithTitle(title string) Option {
	return func(cfg *bcConfig) error {
		cfg.title = title
		return nil
	}
}
