package shell

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Routes returns the menu API:
//
//	GET  /menu               current snapshot
//	POST /menu/select/{key}  change the selection
//	POST /menu/reload        fetch and rebuild
func (s *Shell) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/menu", s.handleSnapshot)
	r.Post("/menu/select/{key}", s.handleSelect)
	r.Post("/menu/reload", s.handleReload)

	return r
}

func (s *Shell) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Shell) handleSelect(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	s.Select(key)

	slog.Info("menu selection changed", "key", key)

	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Shell) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Load(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, s.Snapshot())
		return
	}

	writeJSON(w, http.StatusOK, s.Snapshot())
}

func writeError(w http.ResponseWriter, status int, message string) {
	slog.Error("handling error response",
		"status", status,
		"message", message,
	)
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		slog.Error("failed to write JSON response", "error", err)
		http.Error(w, fmt.Sprintf("internal server error: %v", err), http.StatusInternalServerError)
	}
}
