package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Entry is a single record on a board. The id is owned by the server and
// carried as an opaque string.
type Entry struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts ids encoded as JSON strings or numbers.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := scalarString(raw.ID)
	if err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	value, err := scalarString(raw.Value)
	if err != nil {
		return fmt.Errorf("entry value: %w", err)
	}

	e.ID = id
	e.Value = value
	return nil
}

// scalarString renders a JSON scalar as a string. Strings are unquoted,
// null becomes empty, numbers and booleans keep their literal text.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected scalar, got %s", raw)
	default:
		return string(raw), nil
	}
}

// Board is the payload of a list request: the ordered entries and the
// server's opaque status value.
type Board struct {
	Entries      []Entry         `json:"entries"`
	ServerStatus json.RawMessage `json:"server_status"`
}

// DecodeBoard parses a list response body.
func DecodeBoard(body []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(body, &b); err != nil {
		return Board{}, fmt.Errorf("failed to decode board: %w", err)
	}
	if b.Entries == nil {
		b.Entries = []Entry{}
	}
	return b, nil
}

// API issues the board operations against a server address.
//
// Addresses are host:port, optionally followed by a path prefix such as
// "127.0.0.1:8000/nodes/0". URLs are built as http://<address><path>.
type API struct {
	client *Client
}

// NewAPI wraps a [Client].
func NewAPI(client *Client) *API {
	return &API{client: client}
}

// Client returns the underlying HTTP client.
func (a *API) Client() *Client {
	return a.client
}

// BuildURL joins an address and a path into an http URL.
func BuildURL(address, path string) string {
	address = strings.TrimSuffix(address, "/")
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return address + path
}

// ListEntries fetches the board from the server at address.
//
// A transport failure, a non-2xx status or an undecodable body are all
// reported as errors; the Response is returned for logging either way.
func (a *API) ListEntries(ctx context.Context, address string) (Board, Response, error) {
	resp := a.client.Fetch(ctx, http.MethodGet, BuildURL(address, "/entries"), nil)
	if resp.Error != nil {
		return Board{}, resp, resp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Board{}, resp, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	b, err := DecodeBoard(resp.Body)
	if err != nil {
		return Board{}, resp, err
	}
	return b, resp, nil
}

// CreateEntry posts a new value to the board.
func (a *API) CreateEntry(ctx context.Context, address, value string) Response {
	return a.post(ctx, address, "/entries", url.Values{"value": {value}})
}

// UpdateEntry replaces the value of an existing entry.
func (a *API) UpdateEntry(ctx context.Context, address, id, value string) Response {
	return a.post(ctx, address, "/entries/"+url.PathEscape(id), url.Values{"value": {value}})
}

// DeleteEntry removes an entry.
func (a *API) DeleteEntry(ctx context.Context, address, id string) Response {
	return a.post(ctx, address, "/entries/"+url.PathEscape(id)+"/delete", nil)
}

// Crash asks the server to simulate a crash.
func (a *API) Crash(ctx context.Context, address string) Response {
	return a.post(ctx, address, "/crash", nil)
}

// Recover asks a crashed server to come back.
func (a *API) Recover(ctx context.Context, address string) Response {
	return a.post(ctx, address, "/recover", nil)
}

// post sends a form POST. Non-2xx statuses are folded into Error so that
// callers can log them; the board contract treats them like success.
func (a *API) post(ctx context.Context, address, path string, form url.Values) Response {
	resp := a.client.Fetch(ctx, http.MethodPost, BuildURL(address, path), form)
	if resp.Error == nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		resp.Error = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp
}
