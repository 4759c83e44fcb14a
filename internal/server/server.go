package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/boardclient/internal/store"
)

const (
	// streamWriteTimeout bounds a single SSE or WebSocket write so slow or
	// vanished clients cannot pin a handler goroutine. Must be <= the
	// shutdown timeout.
	streamWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Board"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Server handles HTTP requests for the board dashboard and its API.
//
// Read endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/state: Returns the current view state as JSON
//   - GET /api/sse: Server-Sent Events stream of view states
//   - GET /api/ws: WebSocket stream of view states
//
// Action endpoints (POST) forward to [Actions]; see routes in [Server.Handler].
type Server struct {
	store      store.Store
	actions    Actions
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the view state to publish
//   - actions: Board operations invoked by the action endpoints
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "Board" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, actions Actions, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		actions: actions,
		port:    port,
		assets:  assets,
		title:   title,
		logger:  logger,
	}
}

// Handler returns the router for all dashboard and API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("POST /api/draft", s.handleDraft)
	mux.HandleFunc("POST /api/entries", s.handleCreate)
	mux.HandleFunc("POST /api/entries/{id}", s.handleUpdate)
	mux.HandleFunc("POST /api/entries/{id}/delete", s.handleDelete)
	mux.HandleFunc("POST /api/crash", s.handleCrash)
	mux.HandleFunc("POST /api/recover", s.handleRecover)

	if s.assets != nil {
		mux.HandleFunc("GET /", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until the context is cancelled, then shuts
// down gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// listen first so a busy port is reported synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so streaming handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleState returns the current view state as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	s.writeJSON(w, http.StatusOK, s.store.Get())
}

// handleSSE streams view states via Server-Sent Events.
//
// Each write carries a deadline so a stalled client cannot block the handler
// past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// recorders and some wrappers cannot set deadlines
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before reading the current state so no update falls in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	send := func(state store.ViewState) error {
		data, err := json.Marshal(state)
		if err != nil {
			s.logger.Error("failed to encode view state", "error", err)
			return nil
		}
		return writeAndFlush(data)
	}

	if err := send(s.store.Get()); err != nil {
		return
	}

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return
			}
			if err := send(state); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and, via BaseContext, on shutdown
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
