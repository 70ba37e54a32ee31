package http

import (
	"net/http"
	"strconv"

	"horas/internal/auth"
	"horas/internal/core"
)

// parseImputationFilter reads the query parameters into a ledger filter.
func parseImputationFilter(r *http.Request) (core.ImputationFilter, error) {
	q := r.URL.Query()
	f := core.ImputationFilter{
		WeekID: q.Get("weekId"),
		UserID: q.Get("userId"),
		TaskID: q.Get("taskId"),
		Type:   q.Get("type"),
	}
	if v := q.Get("yearFrom"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, &core.ValidationError{Field: "yearFrom", Reason: "not a number"}
		}
		f.YearFrom = year
	}
	if v := q.Get("yearTo"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, &core.ValidationError{Field: "yearTo", Reason: "not a number"}
		}
		f.YearTo = year
	}
	return f, nil
}

func (s *Server) handleListImputations(w http.ResponseWriter, r *http.Request) {
	f, err := parseImputationFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	imps := s.imputations.List(r.Context(), f)
	if imps == nil {
		imps = []core.Imputation{}
	}
	writeJSON(w, http.StatusOK, imps)
}

// handleUpsertImputation serves both POST (create) and PUT (replace).
// The record is taken whole; the lock and role checks live in the
// service.
func (s *Server) handleUpsertImputation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var imp core.Imputation
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, r, err)
		return
	}
	if id := r.PathValue("id"); id != "" {
		imp.ID = id
	}
	if imp.UserID == "" {
		imp.UserID = actor.UserID
	}

	created := imp.ID == ""
	saved, err := s.imputations.Upsert(r.Context(), actor, imp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleDeleteImputation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := s.imputations.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	locks, err := s.locks.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if locks == nil {
		locks = []core.WeekLock{}
	}
	writeJSON(w, http.StatusOK, locks)
}

func (s *Server) handleSetLock(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var lock core.WeekLock
	if err := decodeJSON(r, &lock); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.locks.Set(r.Context(), actor, lock); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lock)
}
