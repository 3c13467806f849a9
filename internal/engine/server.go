package engine

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Server exposes the engine's HTTP contract: GET /simulation/state,
// POST /simulation/reset, and GET / for a liveness probe.
type Server struct {
	engine *Engine
}

// NewServer wraps an Engine with its HTTP surface.
func NewServer(e *Engine) *Server {
	return &Server{engine: e}
}

// RegisterRoutes attaches the engine's handlers to router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", s.Health).Methods(http.MethodGet)
	router.HandleFunc("/simulation/state", s.GetState).Methods(http.MethodGet)
	router.HandleFunc("/simulation/reset", s.Reset).Methods(http.MethodPost)
}

// Health answers the liveness probe.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetState serves the engine's current snapshot in its wire schema.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toWireState(s.engine.Snapshot()))
}

// Reset discards all state and rebuilds the world.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
