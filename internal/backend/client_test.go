package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"net/url"
	"testing"
	"time"
)

// TestClient_ConnectionReuse verifies that sequential requests to the same
// board server reuse pooled connections.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(0)

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		resp := client.Fetch(ctx, "", server.URL, nil)
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

func TestClient_FetchSendsFormAndRequestID(t *testing.T) {
	var (
		gotMethod      string
		gotValue       string
		gotContentType string
		gotRequestID   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		_ = r.ParseForm()
		gotValue = r.PostForm.Get("value")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(0)
	resp := client.Fetch(context.Background(), http.MethodPost, server.URL, url.Values{"value": {"hello"}})
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v", resp.Error)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotValue != "hello" {
		t.Errorf("form value = %q, want %q", gotValue, "hello")
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotRequestID == "" || gotRequestID != resp.RequestID {
		t.Errorf("request id header = %q, response id = %q", gotRequestID, resp.RequestID)
	}
}

func TestClient_FetchCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	resp := client.Fetch(ctx, "", server.URL, nil)
	if resp.Error == nil {
		t.Fatal("expected error for cancelled request")
	}
	if !errors.Is(resp.Error, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", resp.Error)
	}
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(30 * time.Millisecond)
	resp := client.Fetch(context.Background(), "", server.URL, nil)
	if !errors.Is(resp.Error, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", resp.Error)
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient(0)

	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	client.Close()
}
