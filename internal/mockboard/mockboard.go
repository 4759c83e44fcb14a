// Package mockboard serves in-memory board nodes over HTTP for demos and
// tests.
//
// A Cluster hosts N independent nodes under /nodes/{node}:
//
//	GET  /nodes/{node}/entries             board and server_status
//	GET  /nodes/{node}/status              server_status only
//	POST /nodes/{node}/entries             form value; create
//	POST /nodes/{node}/entries/{id}        form value; update
//	POST /nodes/{node}/entries/{id}/delete delete
//	POST /nodes/{node}/crash               simulate a crash
//	POST /nodes/{node}/recover             leave the crashed state
//
// Reads keep working while a node is crashed; writes answer 408.
package mockboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Entry is a board entry as served to clients. Ids are numbers on the wire.
type Entry struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

// Status is the server_status object piggybacked on every board.
type Status struct {
	Len     int    `json:"len"`
	Hash    string `json:"hash"`
	Crashed bool   `json:"crashed"`
	Notes   string `json:"notes"`
}

// Board is the body of GET /nodes/{node}/entries.
type Board struct {
	Entries      []Entry `json:"entries"`
	ServerStatus Status  `json:"server_status"`
}

type node struct {
	entries   map[int]string
	nextID    int
	crashed   bool
	notes     string
	failReads int
}

// Cluster is a set of in-memory board nodes. Safe for concurrent use.
type Cluster struct {
	mu      sync.Mutex
	nodes   []*node
	latency time.Duration
	logger  *slog.Logger
}

// Option configures a [Cluster].
type Option func(*Cluster)

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(c *Cluster) {
		c.latency = d
	}
}

// WithLogger sets the request logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cluster) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cluster of n empty nodes, numbered from 0.
func New(n int, opts ...Option) *Cluster {
	c := &Cluster{
		nodes:  make([]*node, n),
		logger: slog.Default(),
	}
	for i := range c.nodes {
		c.nodes[i] = &node{entries: make(map[int]string), nextID: 1}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the number of nodes.
func (c *Cluster) Size() int {
	return len(c.nodes)
}

// Addresses returns the board address of every node behind hostport, in
// node order, e.g. "127.0.0.1:8000/nodes/0".
func (c *Cluster) Addresses(hostport string) []string {
	addrs := make([]string, len(c.nodes))
	for i := range c.nodes {
		addrs[i] = fmt.Sprintf("%s/nodes/%d", hostport, i)
	}
	return addrs
}

// Handler returns the HTTP router for all nodes.
func (c *Cluster) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(c.corsMiddleware, c.latencyMiddleware)

	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	n := r.PathPrefix("/nodes/{node:[0-9]+}").Subrouter()
	n.HandleFunc("/entries", c.handleList).Methods(http.MethodGet)
	n.HandleFunc("/status", c.handleStatus).Methods(http.MethodGet)
	n.HandleFunc("/entries", c.handleCreate).Methods(http.MethodPost)
	n.HandleFunc("/entries/{id}", c.handleUpdate).Methods(http.MethodPost)
	n.HandleFunc("/entries/{id}/delete", c.handleDelete).Methods(http.MethodPost)
	n.HandleFunc("/crash", c.handleCrash).Methods(http.MethodPost)
	n.HandleFunc("/recover", c.handleRecover).Methods(http.MethodPost)

	return r
}

// Crash puts node i in the crashed state.
func (c *Cluster) Crash(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[i].crashed = true
}

// Recover clears the crashed state of node i.
func (c *Cluster) Recover(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[i].crashed = false
}

// SetNotes sets the free-form notes reported in node i's status.
func (c *Cluster) SetNotes(i int, notes string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[i].notes = notes
}

// FailReads makes the next n board reads of node i answer 503.
func (c *Cluster) FailReads(i, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[i].failReads = n
}

// Entries returns node i's entries ordered by id.
func (c *Cluster) Entries(i int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[i].ordered()
}

// Add creates an entry on node i directly, bypassing the crashed check.
func (c *Cluster) Add(i int, value string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[i].add(value)
}

func (n *node) add(value string) int {
	id := n.nextID
	n.nextID++
	n.entries[id] = value
	return id
}

func (n *node) ordered() []Entry {
	ids := make([]int, 0, len(n.entries))
	for id := range n.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Value: n.entries[id]}
	}
	return out
}

func (n *node) status(entries []Entry) Status {
	encoded, _ := json.Marshal(entries)
	sum := sha256.Sum256(encoded)
	return Status{
		Len:     len(entries),
		Hash:    hex.EncodeToString(sum[:]),
		Crashed: n.crashed,
		Notes:   n.notes,
	}
}

// node resolves the {node} path variable. Writes 404 and returns nil when
// it is out of range. Must be called with c.mu held.
func (c *Cluster) node(w http.ResponseWriter, r *http.Request) *node {
	i, err := strconv.Atoi(mux.Vars(r)["node"])
	if err != nil || i < 0 || i >= len(c.nodes) {
		http.NotFound(w, r)
		return nil
	}
	return c.nodes[i]
}

// writable resolves the node for a write. Crashed nodes answer 408.
// Must be called with c.mu held.
func (c *Cluster) writable(w http.ResponseWriter, r *http.Request) *node {
	n := c.node(w, r)
	if n == nil {
		return nil
	}
	if n.crashed {
		w.WriteHeader(http.StatusRequestTimeout)
		return nil
	}
	return n
}

func (c *Cluster) handleList(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	n := c.node(w, r)
	if n == nil {
		c.mu.Unlock()
		return
	}
	if n.failReads > 0 {
		n.failReads--
		c.mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	entries := n.ordered()
	b := Board{Entries: entries, ServerStatus: n.status(entries)}
	c.mu.Unlock()

	writeJSON(w, b)
}

func (c *Cluster) handleStatus(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	n := c.node(w, r)
	if n == nil {
		c.mu.Unlock()
		return
	}
	s := n.status(n.ordered())
	c.mu.Unlock()

	writeJSON(w, s)
}

func (c *Cluster) handleCreate(w http.ResponseWriter, r *http.Request) {
	value := r.PostFormValue("value")

	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.writable(w, r)
	if n == nil {
		return
	}
	id := n.add(value)
	c.logger.Debug("entry created", "node", mux.Vars(r)["node"], "id", id)
}

func (c *Cluster) handleUpdate(w http.ResponseWriter, r *http.Request) {
	value := r.PostFormValue("value")

	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.writable(w, r)
	if n == nil {
		return
	}
	id, ok := entryID(n, mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	n.entries[id] = value
}

func (c *Cluster) handleDelete(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.writable(w, r)
	if n == nil {
		return
	}
	id, ok := entryID(n, mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	delete(n.entries, id)
}

func (c *Cluster) handleCrash(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.node(w, r); n != nil {
		n.crashed = true
		c.logger.Info("node crashed", "node", mux.Vars(r)["node"])
	}
}

func (c *Cluster) handleRecover(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.node(w, r); n != nil {
		n.crashed = false
		c.logger.Info("node recovered", "node", mux.Vars(r)["node"])
	}
}

func entryID(n *node, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	_, ok := n.entries[id]
	return id, ok
}

func (c *Cluster) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "PUT, GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, X-Requested-With, X-CSRF-Token")
		next.ServeHTTP(w, r)
	})
}

func (c *Cluster) latencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.latency > 0 {
			select {
			case <-time.After(c.latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
