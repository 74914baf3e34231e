package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/fsm"
	"github.com/aretw0/fsm/internal/logging"
	"github.com/aretw0/fsm/internal/presentation/graph"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes a session.Manager over HTTP.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager
	Logger  *slog.Logger
}

// MachineView is the JSON representation of a machine.
type MachineView struct {
	ID      string           `json:"id"`
	State   domain.StateID   `json:"state"`
	History []domain.StateID `json:"history"`
	CanUndo bool             `json:"can_undo"`
	CanRedo bool             `json:"can_redo"`
	Events  []domain.EventID `json:"events"`
}

// HistoryResult is returned by undo and redo.
type HistoryResult struct {
	OK bool `json:"ok"`
	MachineView
}

// TriggerRequest is the body of POST /machines/{id}/trigger.
type TriggerRequest struct {
	Event domain.EventID `json:"event"`
}

// ChangeStateRequest is the body of POST /machines/{id}/state.
type ChangeStateRequest struct {
	State domain.StateID `json:"state"`
}

// HandlerOption configures the handler.
type HandlerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the manager.
func NewHandler(mgr *session.Manager, opts ...HandlerOption) http.Handler {
	s := &Server{
		Manager: mgr,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	mgr.OnChange(s.publish)

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/states", s.GetStates)
	r.Get("/graph", s.GetGraph)

	r.Route("/machines", func(r chi.Router) {
		r.Get("/", s.ListMachines)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetMachine)
			r.Delete("/", s.DeleteMachine)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/trigger", s.Trigger)
			r.Post("/state", s.ChangeState)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/reset", s.Reset)
			r.Post("/clear-history", s.ClearHistory)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "fsm-http",
		"version": strings.TrimSpace(fsm.Version),
		"initial": string(s.Manager.Config().Initial),
	})
}

// GetStates handles GET /states, optionally filtered by ?event=.
func (s *Server) GetStates(w http.ResponseWriter, r *http.Request) {
	var events []domain.EventID
	if ev := r.URL.Query().Get("event"); ev != "" {
		events = append(events, domain.EventID(ev))
	}
	s.writeJSON(w, http.StatusOK, map[string][]domain.StateID{
		"states": s.Manager.States(events...),
	})
}

// GetGraph handles GET /graph. With ?machine= the graph highlights that machine.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("machine"); id != "" {
		snap, err := s.Manager.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, "graph", err)
			return
		}
		overlay = &graph.GraphOverlay{History: snap.Undo, Current: snap.Current}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Manager.Config(), overlay))
}

// ListMachines handles GET /machines.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, "list", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"machines": ids})
}

// GetMachine handles GET /machines/{id}.
func (s *Server) GetMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Manager.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "get", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(id, snap))
}

// DeleteMachine handles DELETE /machines/{id}.
func (s *Server) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Manager.Delete(r.Context(), id); err != nil {
		s.writeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trigger handles POST /machines/{id}/trigger.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	var body TriggerRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Event == "" {
		http.Error(w, "Missing event", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := s.Manager.Trigger(r.Context(), id, body.Event)
	if err != nil {
		s.writeError(w, "trigger", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(id, snap))
}

// ChangeState handles POST /machines/{id}/state.
func (s *Server) ChangeState(w http.ResponseWriter, r *http.Request) {
	var body ChangeStateRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.State == "" {
		http.Error(w, "Missing state", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := s.Manager.ChangeState(r.Context(), id, body.State)
	if err != nil {
		s.writeError(w, "change state", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(id, snap))
}

// Undo handles POST /machines/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, snap, err := s.Manager.Undo(r.Context(), id)
	s.writeHistory(w, "undo", id, ok, snap, err)
}

// Redo handles POST /machines/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, snap, err := s.Manager.Redo(r.Context(), id)
	s.writeHistory(w, "redo", id, ok, snap, err)
}

// Reset handles POST /machines/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Manager.Reset(r.Context(), id)
	if err != nil {
		s.writeError(w, "reset", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(id, snap))
}

// ClearHistory handles POST /machines/{id}/clear-history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Manager.ClearHistory(r.Context(), id)
	if err != nil {
		s.writeError(w, "clear history", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(id, snap))
}

// -- Helpers --

func (s *Server) view(id string, snap domain.Snapshot) MachineView {
	history := snap.Undo
	if history == nil {
		history = []domain.StateID{}
	}
	events := s.Manager.Events(snap.Current)
	if events == nil {
		events = []domain.EventID{}
	}
	return MachineView{
		ID:      id,
		State:   snap.Current,
		History: history,
		CanUndo: len(snap.Undo) > 0,
		CanRedo: len(snap.Redo) > 0,
		Events:  events,
	}
}

func (s *Server) writeHistory(w http.ResponseWriter, op, id string, ok bool, snap domain.Snapshot, err error) {
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResult{OK: ok, MachineView: s.view(id, snap)})
}

// publish runs as a session change hook, so updates of one machine reach
// subscribers in save order.
func (s *Server) publish(id string, snap domain.Snapshot) {
	if bytes, err := json.Marshal(s.view(id, snap)); err == nil {
		s.Streams.Broadcast(id, string(bytes))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMachineNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed", "op", op, "err", err)
	} else {
		s.Logger.Debug("Request rejected", "op", op, "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
