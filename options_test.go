package boardclient

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	bc, err := New(WithServer(MustServer("a", "127.0.0.1:8000/nodes/0")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if len(bc.Servers()) != 1 {
		t.Errorf("len(Servers()) = %v, want 1", len(bc.Servers()))
	}
}

func TestNew_Defaults(t *testing.T) {
	bc, err := New(WithServers(
		MustServer("a", "127.0.0.1:8000/nodes/0"),
		MustServer("b", "127.0.0.1:8000/nodes/1"),
	))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if bc.Port() != 8080 {
		t.Errorf("Port() = %v, want 8080", bc.Port())
	}
	if bc.headless {
		t.Error("headless should default to false")
	}

	state := bc.State()
	if state.Generation != 0 || state.Loading || state.Busy {
		t.Errorf("State() before Start = %+v, want zero value", state)
	}
}

func TestNew_NoServers(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() expected error for no servers, got nil")
	}
}

func TestNew_ZeroValueServer(t *testing.T) {
	_, err := New(WithServer(Server{}))
	if err == nil || !strings.Contains(err.Error(), "NewServer") {
		t.Errorf("New() error = %v, want error mentioning NewServer", err)
	}
}

func TestNew_DuplicateServerIDs(t *testing.T) {
	_, err := New(WithServers(
		MustServer("a", "127.0.0.1:8000/nodes/0"),
		MustServer("a", "127.0.0.1:8000/nodes/1"),
	))
	if err == nil || !strings.Contains(err.Error(), "duplicate server id") {
		t.Errorf("New() error = %v, want duplicate server id", err)
	}
}

func TestNew_UnknownInitialServer(t *testing.T) {
	_, err := New(
		WithServer(MustServer("a", "127.0.0.1:8000/nodes/0")),
		WithInitialServer("z"),
	)
	if err == nil {
		t.Error("New() expected error for unknown initial server, got nil")
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty initial server", WithInitialServer("")},
		{"zero retry delay", WithRetryDelay(0)},
		{"negative retry delay", WithRetryDelay(-time.Second)},
		{"negative request timeout", WithRequestTimeout(-time.Second)},
		{"port zero", WithPort(0)},
		{"port too high", WithPort(65536)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opt(&bcConfig{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOptions_Apply(t *testing.T) {
	cfg := &bcConfig{}
	opts := []Option{
		WithInitialServer("b"),
		WithRetryDelay(250 * time.Millisecond),
		WithRequestTimeout(2 * time.Second),
		WithPort(9090),
		WithHeadless(),
		WithTitle("Boards"),
		WithHealthExtractor(StatusTextExtractor),
		WithSnapshotCallback(func(Snapshot) {}),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			t.Fatalf("option error = %v", err)
		}
	}

	if cfg.initial != "b" {
		t.Errorf("initial = %q, want b", cfg.initial)
	}
	if cfg.retryDelay != 250*time.Millisecond {
		t.Errorf("retryDelay = %v", cfg.retryDelay)
	}
	if cfg.requestTimeout != 2*time.Second {
		t.Errorf("requestTimeout = %v", cfg.requestTimeout)
	}
	if cfg.port != 9090 {
		t.Errorf("port = %d", cfg.port)
	}
	if !cfg.headless {
		t.Error("headless not set")
	}
	if cfg.title != "Boards" {
		t.Errorf("title = %q", cfg.title)
	}
	if cfg.healthExtractor == nil {
		t.Error("healthExtractor not set")
	}
	if len(cfg.callbacks) != 1 {
		t.Errorf("len(callbacks) = %d, want 1", len(cfg.callbacks))
	}
}

func TestOptions_NilIgnored(t *testing.T) {
	cfg := &bcConfig{}
	if err := WithSnapshotCallback(nil)(cfg); err != nil {
		t.Fatalf("WithSnapshotCallback(nil) error = %v", err)
	}
	if err := WithHealthExtractor(nil)(cfg); err != nil {
		t.Fatalf("WithHealthExtractor(nil) error = %v", err)
	}
	if len(cfg.callbacks) != 0 || cfg.healthExtractor != nil {
		t.Error("nil callback and extractor should be ignored")
	}
}

func TestOperations_BeforeStart(t *testing.T) {
	bc, err := New(WithServers(
		MustServer("a", "127.0.0.1:8000/nodes/0"),
		MustServer("b", "127.0.0.1:8000/nodes/1"),
	))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := bc.SelectServer("b"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SelectServer() error = %v, want ErrNotRunning", err)
	}
	if err := bc.Reload(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Reload() error = %v, want ErrNotRunning", err)
	}
	if issued, err := bc.CreateEntry("x"); issued || !errors.Is(err, ErrNotRunning) {
		t.Errorf("CreateEntry() = %v, %v, want false, ErrNotRunning", issued, err)
	}
	if err := bc.SelectServer("zzz"); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("SelectServer(unknown) error = %v, want ErrUnknownServer", err)
	}
}

func TestServers_ReturnsCopy(t *testing.T) {
	bc, err := New(WithServer(MustServer("a", "127.0.0.1:8000/nodes/0")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	servers := bc.Servers()
	servers[0] = MustServer("z", "127.0.0.1:9000")

	if bc.Servers()[0].ID() != "a" {
		t.Error("Servers() should return a copy")
	}
}
