// Package httpapi exposes the coordinator over HTTP for the CLI and the
// MCP adapter.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/coordinator"
	"github.com/ringdown/chimed/internal/item"
)

// Server provides the HTTP API over a coordinator.
type Server struct {
	coord  *coordinator.Coordinator
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(coord *coordinator.Coordinator, logger *logrus.Logger) *Server {
	s := &Server{coord: coord, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/alarms", s.handleCreate(item.KindAlarm))
	s.mux.HandleFunc("POST /api/reminders", s.handleCreate(item.KindReminder))

	s.mux.HandleFunc("GET /api/items", s.handleList)
	s.mux.HandleFunc("GET /api/items/{id}", s.handleGet)
	s.mux.HandleFunc("POST /api/items/{id}/stop", s.handleStop)
	s.mux.HandleFunc("POST /api/items/{id}/snooze", s.handleSnooze)
	s.mux.HandleFunc("PATCH /api/items/{id}", s.handleEdit)
	s.mux.HandleFunc("DELETE /api/items/{id}", s.handleDelete)

	s.mux.HandleFunc("POST /api/stop_all", s.handleStopAll)
	s.mux.HandleFunc("POST /api/delete_all", s.handleDeleteAll)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondOpError maps coordinator errors onto HTTP statuses. A missing item
// on an action endpoint is a soft no-op so retried buttons and voice
// commands stay quiet.
func (s *Server) respondOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, item.ErrNotFound):
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "not_found"})
	case errors.Is(err, item.ErrTypeMismatch):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, item.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error("operation failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// kindParam reads the optional ?kind= filter.
func kindParam(r *http.Request) item.Kind {
	return item.Kind(r.URL.Query().Get("kind"))
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// CreateRequest is the body for POST /api/alarms and /api/reminders.
type CreateRequest struct {
	Name         string   `json:"name"`
	When         string   `json:"when"`
	Repeat       string   `json:"repeat"`
	Days         []string `json:"days"`
	Message      string   `json:"message"`
	Target       string   `json:"target"`
	Sound        string   `json:"sound"`
	NotifyTarget string   `json:"notify_target"`
}

func (s *Server) handleCreate(kind item.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if ok, msg := s.decodeJSON(r, &req); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}

		it, err := s.coord.Schedule(coordinator.ScheduleRequest{
			Kind:         kind,
			Name:         req.Name,
			When:         req.When,
			Repeat:       item.Repeat(req.Repeat),
			Days:         req.Days,
			Message:      req.Message,
			Target:       req.Target,
			Sound:        req.Sound,
			NotifyTarget: req.NotifyTarget,
		})
		if err != nil {
			s.respondOpError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, it)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items := s.coord.List(kindParam(r))
	if items == nil {
		items = []item.Item{}
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	it, err := s.coord.Get(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, it)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	it, err := s.coord.Stop(r.PathValue("id"), kindParam(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, it)
}

// SnoozeRequest is the body for POST /api/items/{id}/snooze.
type SnoozeRequest struct {
	Minutes int `json:"minutes"`
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	var req SnoozeRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	it, err := s.coord.Snooze(r.PathValue("id"), req.Minutes, kindParam(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, it)
}

// EditRequest is the body for PATCH /api/items/{id}. Absent fields are left
// untouched.
type EditRequest struct {
	Name    *string   `json:"name,omitempty"`
	When    *string   `json:"when,omitempty"`
	Message *string   `json:"message,omitempty"`
	Sound   *string   `json:"sound,omitempty"`
	Repeat  *string   `json:"repeat,omitempty"`
	Days    *[]string `json:"days,omitempty"`
	Target  *string   `json:"target,omitempty"`
	Enabled *bool     `json:"enabled,omitempty"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	edit := coordinator.EditRequest{
		Name:    req.Name,
		When:    req.When,
		Message: req.Message,
		Sound:   req.Sound,
		Days:    req.Days,
		Target:  req.Target,
		Enabled: req.Enabled,
	}
	if req.Repeat != nil {
		rp := item.Repeat(*req.Repeat)
		edit.Repeat = &rp
	}

	it, err := s.coord.Edit(r.PathValue("id"), edit)
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, it)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Delete(r.PathValue("id"), kindParam(r)); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStopAll(w http.ResponseWriter, _ *http.Request) {
	stopped := s.coord.StopAll()
	s.respondJSON(w, http.StatusOK, map[string]int{"stopped": len(stopped)})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	n := s.coord.DeleteAll(kindParam(r))
	s.respondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
