// Package board implements the board client view-model.
//
// A [Model] holds the server registry, the selected server, the last board
// snapshot and two flags: loading (a list fetch or its retry is pending) and
// busy (a mutating request is in flight). Its contract:
//
//   - At most one list fetch is outstanding. Starting a new one cancels the
//     previous fetch and any pending retry.
//   - A failed fetch that was not cancelled is retried after a fixed delay,
//     indefinitely, until one succeeds. Loading stays true meanwhile.
//   - Only the most recently issued fetch may replace the snapshot.
//   - Mutating operations (create, update, delete, crash, recover) are
//     dropped while busy. On completion, success or failure, busy is cleared
//     and the board is reloaded exactly once.
package board
