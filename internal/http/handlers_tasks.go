package http

import (
	"net/http"

	"horas/internal/auth"
	"horas/internal/core"
	"horas/internal/services"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	// The sheet only shows tasks the actor may log against unless the
	// full catalogue is requested for administration.
	if r.URL.Query().Get("all") == "" {
		if actor, ok := auth.ActorFromContext(r.Context()); ok {
			tasks = services.VisibleTasks(tasks, actor.UserID, actor.Roles)
		}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t core.Task
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tasks.Create(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var t core.Task
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = r.PathValue("id")
	if err := s.tasks.Update(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTaskBudget reports the task's budget consumption and the two
// signed balance counters.
func (s *Server) handleTaskBudget(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	types, err := s.taskTypes.TypeSet(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := struct {
		Budget  any `json:"budget"`
		Balance any `json:"balance"`
	}{
		Budget:  s.agg.TaskBudget(types, task),
		Balance: s.agg.TaskBalance(task.ID),
	}
	writeJSON(w, http.StatusOK, resp)
}
