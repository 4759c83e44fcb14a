// Package server provides the HTTP server for the board dashboard and API.
//
// This package handles all HTTP concerns of a board client:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - Read API: The current view state at "/api/state"
//   - Live updates: Server-Sent Events at "/api/sse" and a WebSocket at "/api/ws"
//   - Action API: Form POSTs under "/api/" that drive the board model
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the boardclient library should not need to interact with this
// package directly. The server is started by [boardclient.BoardClient.Start].
package server
