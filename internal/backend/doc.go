// Package backend talks to board servers over HTTP.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with optional per-request timeout, body
//     size limit and request correlation ids
//   - [API]: the six board operations (list, create, update, delete, crash,
//     recover) built on top of Client
//   - [Board] and [Entry]: the decoded list payload
//
// Mutating requests are sent as form-encoded POSTs, matching what board
// servers read with their form parsers.
package backend
