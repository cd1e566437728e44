// Package http exposes a read-mostly inspection API over a running
// session: registered actions, the outstanding force request, and the
// recorded transcript. It exists for dashboards and debugging; the
// protocol itself stays on the frame transport.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/transcript"
)

// SessionView is the slice of the runtime the API reads from.
// pkg/runner.Runner implements it with its own locking.
type SessionView interface {
	Actions() []protocol.Action
	OutstandingForce() *force.Request
}

// Server serves the inspection endpoints.
type Server struct {
	view  SessionView
	store transcript.Store
}

// NewHandler creates the HTTP handler. store may be nil when no
// transcript is recorded; the transcript endpoints then return 404.
func NewHandler(view SessionView, store transcript.Store) http.Handler {
	server := &Server{view: view, store: store}

	r := chi.NewRouter()
	r.Get("/healthz", server.health)
	r.Get("/actions", server.actions)
	r.Get("/force", server.outstandingForce)
	r.Get("/transcripts", server.sessions)
	r.Get("/transcripts/{sessionID}", server.entries)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(marionette.Version),
	})
}

type actionView struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

func (s *Server) actions(w http.ResponseWriter, r *http.Request) {
	actions := s.view.Actions()
	out := make([]actionView, 0, len(actions))
	for _, a := range actions {
		raw, err := json.Marshal(a.Schema)
		if err != nil {
			slog.Error("actions: marshal schema", "error", err, "action", a.Name)
			http.Error(w, "Failed to encode actions", http.StatusInternalServerError)
			return
		}
		out = append(out, actionView{Name: a.Name, Description: a.Description, Schema: raw})
	}
	writeJSON(w, http.StatusOK, out)
}

type forceView struct {
	ID          string   `json:"id"`
	Query       string   `json:"query"`
	GameState   string   `json:"game_state,omitempty"`
	Ephemeral   bool     `json:"ephemeral"`
	ActionNames []string `json:"action_names"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
}

func (s *Server) outstandingForce(w http.ResponseWriter, r *http.Request) {
	req := s.view.OutstandingForce()
	if req == nil {
		http.Error(w, "No outstanding force request", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, forceView{
		ID:          req.ID,
		Query:       req.Query,
		GameState:   req.GameState,
		Ephemeral:   req.Ephemeral,
		ActionNames: req.ActionNames,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Transcript recording is disabled", http.StatusNotFound)
		return
	}
	sessions, err := s.store.Sessions(r.Context())
	if err != nil {
		slog.Error("transcripts: list sessions", "error", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []string{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) entries(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Transcript recording is disabled", http.StatusNotFound)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	entries, err := s.store.List(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, transcript.ErrSessionNotFound) {
			http.Error(w, "Unknown session", http.StatusNotFound)
			return
		}
		slog.Error("transcripts: list entries", "error", err, "session", sessionID)
		http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// Serve runs the inspection API until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
