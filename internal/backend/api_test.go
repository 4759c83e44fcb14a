package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		address string
		path    string
		want    string
	}{
		{"host1:1", "/entries", "http://host1:1/entries"},
		{"127.0.0.1:8000/nodes/0", "/entries", "http://127.0.0.1:8000/nodes/0/entries"},
		{"127.0.0.1:8000/nodes/0/", "/crash", "http://127.0.0.1:8000/nodes/0/crash"},
		{"http://localhost:9000", "/recover", "http://localhost:9000/recover"},
		{"https://board.example.com", "/entries", "https://board.example.com/entries"},
	}

	for _, tt := range tests {
		if got := BuildURL(tt.address, tt.path); got != tt.want {
			t.Errorf("BuildURL(%q, %q) = %q, want %q", tt.address, tt.path, got, tt.want)
		}
	}
}

func TestDecodeBoard(t *testing.T) {
	body := `{"entries":[{"id":1,"value":"a"},{"id":"x7","value":"b"}],"server_status":"ok"}`

	b, err := DecodeBoard([]byte(body))
	if err != nil {
		t.Fatalf("DecodeBoard() error = %v", err)
	}
	if len(b.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(b.Entries))
	}
	if b.Entries[0].ID != "1" || b.Entries[0].Value != "a" {
		t.Errorf("Entries[0] = %+v", b.Entries[0])
	}
	if b.Entries[1].ID != "x7" || b.Entries[1].Value != "b" {
		t.Errorf("Entries[1] = %+v", b.Entries[1])
	}
	if string(b.ServerStatus) != `"ok"` {
		t.Errorf("ServerStatus = %s, want %q", b.ServerStatus, `"ok"`)
	}
}

func TestDecodeBoard_EmptyEntries(t *testing.T) {
	b, err := DecodeBoard([]byte(`{"server_status":{"crashed":false}}`))
	if err != nil {
		t.Fatalf("DecodeBoard() error = %v", err)
	}
	if b.Entries == nil || len(b.Entries) != 0 {
		t.Errorf("Entries = %v, want empty non-nil slice", b.Entries)
	}
}

func TestDecodeBoard_Invalid(t *testing.T) {
	if _, err := DecodeBoard([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := DecodeBoard([]byte(`{"entries":[{"id":{"nested":1},"value":"a"}]}`)); err == nil {
		t.Error("expected error for object id")
	}
}

func TestAPI_ListEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/nodes/0/entries" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"entries":[{"id":1,"value":"a"}],"server_status":"ok"}`))
	}))
	defer server.Close()

	api := NewAPI(NewClient(0))
	address := strings.TrimPrefix(server.URL, "http://") + "/nodes/0"

	b, resp, err := api.ListEntries(context.Background(), address)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if len(b.Entries) != 1 || b.Entries[0].Value != "a" {
		t.Errorf("Entries = %+v", b.Entries)
	}
}

func TestAPI_ListEntries_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	api := NewAPI(NewClient(0))
	_, _, err := api.ListEntries(context.Background(), server.URL)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestAPI_MutatingPaths(t *testing.T) {
	type call struct {
		path  string
		value string
	}
	calls := make(chan call, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = r.ParseForm()
		calls <- call{path: r.URL.EscapedPath(), value: r.PostForm.Get("value")}
		if r.URL.Path == "/crash" {
			w.WriteHeader(http.StatusRequestTimeout)
		}
	}))
	defer server.Close()

	api := NewAPI(NewClient(0))
	ctx := context.Background()

	if resp := api.CreateEntry(ctx, server.URL, "x"); resp.Error != nil {
		t.Errorf("CreateEntry() error = %v", resp.Error)
	}
	if resp := api.UpdateEntry(ctx, server.URL, "7", "y"); resp.Error != nil {
		t.Errorf("UpdateEntry() error = %v", resp.Error)
	}
	if resp := api.DeleteEntry(ctx, server.URL, "a b"); resp.Error != nil {
		t.Errorf("DeleteEntry() error = %v", resp.Error)
	}
	if resp := api.Crash(ctx, server.URL); !errors.Is(resp.Error, ErrUnexpectedStatus) {
		t.Errorf("Crash() error = %v, want ErrUnexpectedStatus", resp.Error)
	}
	if resp := api.Recover(ctx, server.URL); resp.Error != nil {
		t.Errorf("Recover() error = %v", resp.Error)
	}

	want := []call{
		{"/entries", "x"},
		{"/entries/7", "y"},
		{"/entries/a%20b/delete", ""},
		{"/crash", ""},
		{"/recover", ""},
	}
	for i, w := range want {
		got := <-calls
		if got != w {
			t.Errorf("call %d = %+v, want %+v", i, got, w)
		}
	}
}
