package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dori/tasklist/internal/db"
	"github.com/dori/tasklist/internal/model"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type createRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		s.internalError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidateCreateRequestJSON(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task: title is required")
		return
	}

	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task data")
		return
	}

	task, err := s.store.CreateTask(r.Context(), req.Title)
	if err != nil {
		s.internalError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), taskID(r))
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, db.ErrNotFound.Error())
		return
	}
	if err != nil {
		s.internalError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidateUpdateRequestJSON(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update: send title and/or completed")
		return
	}

	var patch model.TaskPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update data")
		return
	}

	task, err := s.store.UpdateTask(r.Context(), id, patch)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, db.ErrNotFound.Error())
		return
	}
	if err != nil {
		s.internalError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)

	err := s.store.DeleteTask(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, db.ErrNotFound.Error())
		return
	}
	if err != nil {
		s.internalError(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// taskID returns the unescaped {id} path parameter. chi matches on the raw
// path, so an escaped slash arrives still encoded.
func taskID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("storage failed", "op", op, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
