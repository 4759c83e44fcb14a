// Package store holds the published view state of a board client.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [ViewState]: JSON representation of the board client's state
//
// Each update replaces the state wholesale, mirroring how board snapshots
// are never merged. Subscribers receive updates via channels with
// non-blocking sends (slow subscribers miss updates rather than block the
// board model).
package store
