package store

import (
	"encoding/json"
	"time"
)

// Entry is the storage representation of a board entry.
type Entry struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ServerInfo describes one registry entry for display.
type ServerInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// ViewState is the published read model of a board client, optimized for
// JSON serialization (used by the REST API, SSE and WebSocket streams).
// It is decoupled from the board model's internal types.
type ViewState struct {
	// Server is the selected server id.
	Server string `json:"server"`

	// Servers lists the registry in declaration order.
	Servers []ServerInfo `json:"servers"`

	// Loading is true while a list fetch (or its retry) is outstanding.
	Loading bool `json:"loading"`

	// Busy is true while a mutating request is in flight.
	Busy bool `json:"busy"`

	// Draft is the pending input value for a new entry.
	Draft string `json:"draft"`

	// Entries is the last successfully fetched entry list.
	Entries []Entry `json:"entries"`

	// ServerStatus is the opaque status value from the last fetch.
	ServerStatus json.RawMessage `json:"server_status"`

	// Health summarizes ServerStatus ("up", "crashed", "unknown").
	Health string `json:"health"`

	// Generation identifies the most recently issued list fetch.
	Generation uint64 `json:"generation"`

	// LastError holds the most recent list fetch error while retrying.
	// nil once a fetch succeeds.
	LastError *string `json:"last_error"`

	// UpdatedAt is when this state was published.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the state.
func (v ViewState) Clone() ViewState {
	cp := v
	if v.Servers != nil {
		cp.Servers = append([]ServerInfo(nil), v.Servers...)
	}
	if v.Entries != nil {
		cp.Entries = append([]Entry(nil), v.Entries...)
	}
	if v.ServerStatus != nil {
		cp.ServerStatus = append(json.RawMessage(nil), v.ServerStatus...)
	}
	if v.LastError != nil {
		s := *v.LastError
		cp.LastError = &s
	}
	return cp
}

// Store defines the interface for holding and subscribing to view state.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows state changes to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update replaces the current state and notifies all subscribers.
	Update(state ViewState)

	// Get returns a copy of the current state.
	Get() ViewState

	// Subscribe returns a channel that receives state updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan ViewState

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan ViewState)
}
