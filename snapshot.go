package boardclient

import "time"

// Entry is a single record on the board. The id is owned by the server.
type Entry struct {
	ID    string
	Value string
}

// Snapshot is a successfully fetched board, delivered to callbacks
// registered with [WithSnapshotCallback].
//
// Snapshot is a copy; callbacks may keep or modify it freely.
type Snapshot struct {
	// Server is the id of the server the board was fetched from.
	Server string

	// Entries is the ordered entry list as returned by the server.
	Entries []Entry

	// ServerStatus is the raw JSON server_status value.
	ServerStatus []byte

	// Health is ServerStatus interpreted by the configured [HealthExtractor].
	Health Health

	// Generation identifies the list fetch that produced this snapshot.
	Generation uint64

	// FetchedAt is when the snapshot was applied.
	FetchedAt time.Time

	// Latency is the time taken by the list request.
	Latency time.Duration
}
