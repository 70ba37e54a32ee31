package http

import (
	"net/http"

	"horas/internal/core"
	"horas/internal/export"
)

func (s *Server) handleListTaskTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.taskTypes.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleGetTaskType(w http.ResponseWriter, r *http.Request) {
	t, err := s.taskTypes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTaskType(w http.ResponseWriter, r *http.Request) {
	var t core.TaskType
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.taskTypes.Create(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTaskType(w http.ResponseWriter, r *http.Request) {
	var t core.TaskType
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = r.PathValue("id")
	if err := s.taskTypes.Update(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTaskType(w http.ResponseWriter, r *http.Request) {
	if err := s.taskTypes.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportTaskTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.taskTypes.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="task-types.csv"`)
	if err := export.WriteTaskTypesCSV(w, types); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

// handleImportTaskTypes upserts every row of the uploaded CSV. The file
// is validated as a whole before the first write, so a bad row imports
// nothing.
func (s *Server) handleImportTaskTypes(w http.ResponseWriter, r *http.Request) {
	types, err := export.ReadTaskTypesCSV(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, t := range types {
		if err := s.taskTypes.Upsert(r.Context(), t); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(types)})
}
