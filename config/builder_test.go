package config

import (
	"strings"
	"testing"

	"github.com/jpalmerr/boardclient"
)

func TestBuildServers_DirectThenGrids(t *testing.T) {
	cfg, err := Parse([]byte(`
servers:
  - id: main
    address: 127.0.0.1:8000/nodes/0
grids:
  - address_template: "127.0.0.1:9000/nodes/{{.node}}"
    id_template: "g{{.node}}"
    range: {key: node, from: 0, count: 2}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	servers, err := BuildServers(cfg)
	if err != nil {
		t.Fatalf("BuildServers() error = %v", err)
	}

	want := []struct{ id, address string }{
		{"main", "127.0.0.1:8000/nodes/0"},
		{"g0", "127.0.0.1:9000/nodes/0"},
		{"g1", "127.0.0.1:9000/nodes/1"},
	}
	if len(servers) != len(want) {
		t.Fatalf("len(servers) = %d, want %d", len(servers), len(want))
	}
	for i, w := range want {
		if servers[i].ID() != w.id || servers[i].Address() != w.address {
			t.Errorf("servers[%d] = %s %s, want %s %s", i, servers[i].ID(), servers[i].Address(), w.id, w.address)
		}
	}
}

func TestBuildServers_GridTemplateExecutionError(t *testing.T) {
	cfg, err := Parse([]byte(`
grids:
  - address_template: "127.0.0.1:9000/nodes/{{.missing}}"
    range: {key: node, count: 2}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err = BuildServers(cfg)
	if err == nil {
		t.Fatal("expected error for missing template key")
	}
	if !strings.Contains(err.Error(), "grids[0]") {
		t.Errorf("error should name the grid, got: %v", err)
	}
}

func TestBuildOptions_CreatesClient(t *testing.T) {
	cfg, err := Parse([]byte(`
title: Test Board
port: 9091
retry_delay: 200ms
request_timeout: 2s
initial_server: "1"
health: text
servers:
  "0": 127.0.0.1:8000/nodes/0
  "1": 127.0.0.1:8000/nodes/1
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	bc, err := boardclient.New(append(opts, boardclient.WithHeadless())...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if bc.Port() != 9091 {
		t.Errorf("Port() = %d, want 9091", bc.Port())
	}
	if got := len(bc.Servers()); got != 2 {
		t.Errorf("len(Servers()) = %d, want 2", got)
	}
}

func TestBuildOptions_UnknownInitialServer(t *testing.T) {
	cfg, err := Parse([]byte(`
initial_server: nope
servers:
  a: 127.0.0.1:8000
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if _, err := boardclient.New(opts...); err == nil {
		t.Fatal("New() should reject an initial server outside the registry")
	}
}

func TestBuildHealthExtractor(t *testing.T) {
	crashed := []byte(`{"crashed": true}`)
	nested := []byte(`{"node": {"crashed": true}}`)
	text := []byte(`"ok"`)

	tests := []struct {
		name   string
		hc     HealthConfig
		status []byte
		want   boardclient.Health
		isNil  bool
	}{
		{name: "default", hc: HealthConfig{}, isNil: true},
		{name: "explicit default", hc: HealthConfig{Type: "default"}, isNil: true},
		{name: "crashed flag", hc: HealthConfig{Type: "crashed"}, status: crashed, want: boardclient.HealthCrashed},
		{name: "crashed path", hc: HealthConfig{Type: "crashed", Path: "node.crashed"}, status: nested, want: boardclient.HealthCrashed},
		{name: "text", hc: HealthConfig{Type: "text"}, status: text, want: boardclient.HealthUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := buildHealthExtractor(tt.hc)
			if tt.isNil {
				if extractor != nil {
					t.Fatal("expected nil extractor")
				}
				return
			}
			if got := extractor(tt.status); got != tt.want {
				t.Errorf("extractor() = %q, want %q", got, tt.want)
			}
		})
	}
}
