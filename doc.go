// Package boardclient provides an embeddable client for a family of
// interchangeable board servers: it shows the board of one selected server
// and lets users add, edit and delete entries and crash or recover the node.
//
// BoardClient is SDK-first. The board model, the dashboard and its HTTP API
// are all configured programmatically through functional options; the
// cmd/boardclient binary is a thin YAML front end over the same options.
//
// # Quick Start
//
//	servers, _ := boardclient.NewServerGrid(
//	    boardclient.WithAddressTemplate("127.0.0.1:8000/nodes/{{.node}}"),
//	    boardclient.WithRange("node", 0, 3),
//	)
//	bc, _ := boardclient.New(boardclient.WithServers(servers...))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	bc.Start(ctx) // blocks until context is cancelled
//
// # Board semantics
//
// Exactly one server is selected at a time. Switching servers, or any
// completed mutation, reloads the board; a reload cancels the previous
// list request, and results of superseded requests are discarded. A failed
// list request is retried after a fixed delay (one second by default, see
// [WithRetryDelay]) until one succeeds or a newer reload supersedes it.
//
// Only one mutating request is in flight at a time. While it is pending,
// further mutations are dropped and report false. Mutation failures are not
// reported: the board is reloaded regardless, which shows the actual
// outcome.
//
// # Health
//
// Each board carries an opaque server_status value. A [HealthExtractor]
// summarizes it for display:
//
//   - [CrashedFlagExtractor]: Reads a boolean "crashed" flag from a status object
//   - [StatusTextExtractor]: Interprets plain string statuses
//   - [FirstMatch]: Tries multiple extractors in order
//   - [DefaultHealthExtractor]: The crashed flag, then status text
//
// # Architecture
//
//   - internal/board: The board model and its event loop
//   - internal/backend: HTTP client for the board server API
//   - internal/store: Latest view state with pub/sub for live updates
//   - internal/server: Dashboard HTTP API, Server-Sent Events and WebSocket
//   - internal/mockboard: In-process board servers for demos and tests
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package boardclient
