package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"horas/internal/auth"
	"horas/internal/cache"
	"horas/internal/core"
	"horas/internal/export"
	"horas/internal/services"
)

// handleInitialData returns everything the weekly sheet needs in one
// request: the catalogues, the actor's imputations, and the lock map.
func (s *Server) handleInitialData(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	ctx := r.Context()

	types, err := s.taskTypes.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	locks, err := s.locks.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	imps := s.imputations.List(ctx, core.ImputationFilter{UserID: actor.UserID})
	if imps == nil {
		imps = []core.Imputation{}
	}

	lockMap := make(map[string]bool, len(locks))
	for _, l := range locks {
		if l.Locked {
			lockMap[l.WeekID] = true
		}
	}

	resp := struct {
		TaskTypes   []core.TaskType   `json:"taskTypes"`
		Tasks       []core.Task       `json:"tasks"`
		Imputations []core.Imputation `json:"imputations"`
		WeekLocks   map[string]bool   `json:"weekLocks"`
	}{
		TaskTypes:   types,
		Tasks:       services.VisibleTasks(tasks, actor.UserID, actor.Roles),
		Imputations: imps,
		WeekLocks:   lockMap,
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWeekSummary aggregates one week for the acting user, or for
// another user when userId is supplied by an approver.
func (s *Server) handleWeekSummary(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	weekID := r.PathValue("weekId")
	if _, _, err := core.ParseWeekID(weekID); err != nil {
		writeError(w, r, &core.ValidationError{Field: "weekId", Reason: err.Error()})
		return
	}

	userID := actor.UserID
	if v := r.URL.Query().Get("userId"); v != "" && v != actor.UserID {
		if !actor.IsApprover() {
			writeError(w, r, fmt.Errorf("week summary of %s: %w", v, core.ErrForbidden))
			return
		}
		userID = v
	}

	types, err := s.taskTypes.TypeSet(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	locked, err := s.locks.IsLocked(r.Context(), weekID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := struct {
		services.WeekTotals
		Locked bool `json:"locked"`
	}{
		WeekTotals: s.agg.WeekTotals(types, userID, weekID),
		Locked:     locked,
	}
	writeJSON(w, http.StatusOK, resp)
}

// summaryOptions parses the year path value and the seg/excluded query
// parameters shared by the summary endpoints.
func (s *Server) summaryOptions(r *http.Request) (services.SummaryOptions, error) {
	actor, _ := auth.ActorFromContext(r.Context())

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 {
		return services.SummaryOptions{}, &core.ValidationError{Field: "year", Reason: "not a valid year"}
	}

	opts := services.SummaryOptions{Year: year, UserID: actor.UserID}

	if v := r.URL.Query().Get("seg"); v != "" {
		seg, err := services.ParseSegFilter(v)
		if err != nil {
			return services.SummaryOptions{}, err
		}
		opts.Seg = seg
	}
	if v := r.URL.Query().Get("excluded"); v != "" {
		opts.Excluded = strings.Split(v, ",")
	}
	if v := r.URL.Query().Get("userId"); v != "" && v != actor.UserID {
		if !actor.IsApprover() {
			return services.SummaryOptions{}, fmt.Errorf("summary of %s: %w", v, core.ErrForbidden)
		}
		opts.UserID = v
	}
	return opts, nil
}

func (s *Server) yearSummary(r *http.Request, opts services.SummaryOptions) (services.YearSummary, error) {
	scope := fmt.Sprintf("summary:%d:%s:%s:%s", opts.Year, opts.UserID, opts.Seg.String(), strings.Join(opts.Excluded, ","))
	key := cache.VersionedKey(scope, s.imputations.Ledger().Version())
	if cached, ok := s.summaryCache.Get(key); ok {
		return cached, nil
	}

	types, err := s.taskTypes.List(r.Context())
	if err != nil {
		return services.YearSummary{}, err
	}
	summary := s.reporter.YearSummary(types, opts)
	s.summaryCache.Set(key, summary)
	return summary, nil
}

func (s *Server) handleYearSummary(w http.ResponseWriter, r *http.Request) {
	opts, err := s.summaryOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.yearSummary(r, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleYearSummaryExport(w http.ResponseWriter, r *http.Request) {
	opts, err := s.summaryOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.yearSummary(r, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	buf, err := export.WriteYearSummaryXLSX(summary)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="resumen-%d.xlsx"`, opts.Year))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.ErrorContext(r.Context(), "XLSX export write failed", "error", err)
	}
}
