package server

import (
	"errors"
	"net/http"

	"github.com/jpalmerr/boardclient/internal/board"
)

// Actions are the board operations exposed by the action endpoints.
// [board.Model] implements Actions.
type Actions interface {
	SelectServer(id string) error
	Reload() error
	SetDraft(value string) error
	CreateEntry(value string) (bool, error)
	CreateDraft() (bool, error)
	UpdateEntry(id, value string) (bool, error)
	DeleteEntry(id string) (bool, error)
	CrashServer() (bool, error)
	RecoverServer() (bool, error)
}

// actionResponse is the body of every action endpoint. Accepted is false
// when a mutation was dropped because another one was in flight.
type actionResponse struct {
	Accepted bool `json:"accepted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.PostFormValue("server")
	if id == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "server is required"})
		return
	}
	s.respond(w, r, true, s.actions.SelectServer(id))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, true, s.actions.Reload())
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, true, s.actions.SetDraft(r.PostFormValue("value")))
}

// handleCreate posts the "value" field, or the draft when the field is absent.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var (
		accepted bool
		err      error
	)
	if r.PostForm.Has("value") {
		accepted, err = s.actions.CreateEntry(r.PostForm.Get("value"))
	} else {
		accepted, err = s.actions.CreateDraft()
	}
	s.respond(w, r, accepted, err)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	accepted, err := s.actions.UpdateEntry(r.PathValue("id"), r.PostFormValue("value"))
	s.respond(w, r, accepted, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	accepted, err := s.actions.DeleteEntry(r.PathValue("id"))
	s.respond(w, r, accepted, err)
}

func (s *Server) handleCrash(w http.ResponseWriter, r *http.Request) {
	accepted, err := s.actions.CrashServer()
	s.respond(w, r, accepted, err)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	accepted, err := s.actions.RecoverServer()
	s.respond(w, r, accepted, err)
}

// respond maps an action outcome to a status code. A dropped mutation is
// still 202; only rejected or impossible requests are errors.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, accepted bool, err error) {
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, actionResponse{Accepted: accepted})
	case errors.Is(err, board.ErrUnknownServer):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, board.ErrNotRunning):
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("action failed", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
