// Package http exposes the JSON API: catalogue CRUD, weekly imputation
// writes, week locks, and the aggregated summaries.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"horas/internal/auth"
	"horas/internal/cache"
	"horas/internal/log"
	"horas/internal/middleware/ratelimit"
	"horas/internal/middleware/security"
	"horas/internal/middleware/trace"
	"horas/internal/services"
	"horas/internal/store"
)

// Deps bundles everything the server serves.
type Deps struct {
	Logger      *log.Logger
	Auth        *auth.Manager
	Users       store.UserStore
	TaskTypes   *services.TaskTypeService
	Tasks       *services.TaskService
	Imputations *services.ImputationService
	Locks       *services.LockService
	Aggregator  *services.Aggregator
	Reporter    *services.SummaryReporter

	RequestsPerMinute int
}

type Server struct {
	http.Server

	logger      *log.Logger
	auth        *auth.Manager
	users       store.UserStore
	taskTypes   *services.TaskTypeService
	tasks       *services.TaskService
	imputations *services.ImputationService
	locks       *services.LockService
	agg         *services.Aggregator
	reporter    *services.SummaryReporter

	limiter *ratelimit.Limiter
	// Year summaries are cached under the ledger version, so any write
	// invalidates them without explicit eviction.
	summaryCache *cache.LRU[services.YearSummary]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:       deps.Logger.WithComponent(log.ComponentHTTP),
		auth:         deps.Auth,
		users:        deps.Users,
		taskTypes:    deps.TaskTypes,
		tasks:        deps.Tasks,
		imputations:  deps.Imputations,
		locks:        deps.Locks,
		agg:          deps.Aggregator,
		reporter:     deps.Reporter,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
		summaryCache: cache.NewLRU[services.YearSummary](64, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := func(h http.HandlerFunc) http.Handler {
		return s.auth.RequireAuth(h)
	}
	approver := func(h http.HandlerFunc) http.Handler {
		return s.auth.RequireAuth(auth.RequireApprover(h))
	}

	mux.Handle("GET /api/task-types", authed(s.handleListTaskTypes))
	mux.Handle("POST /api/task-types", authed(s.handleCreateTaskType))
	mux.Handle("GET /api/task-types/export", authed(s.handleExportTaskTypes))
	mux.Handle("POST /api/task-types/import", authed(s.handleImportTaskTypes))
	mux.Handle("GET /api/task-types/{id}", authed(s.handleGetTaskType))
	mux.Handle("PUT /api/task-types/{id}", authed(s.handleUpdateTaskType))
	mux.Handle("DELETE /api/task-types/{id}", authed(s.handleDeleteTaskType))

	mux.Handle("GET /api/tasks", authed(s.handleListTasks))
	mux.Handle("POST /api/tasks", authed(s.handleCreateTask))
	mux.Handle("GET /api/tasks/{id}", authed(s.handleGetTask))
	mux.Handle("PUT /api/tasks/{id}", authed(s.handleUpdateTask))
	mux.Handle("DELETE /api/tasks/{id}", authed(s.handleDeleteTask))
	mux.Handle("GET /api/tasks/{id}/budget", authed(s.handleTaskBudget))

	mux.Handle("GET /api/imputations", authed(s.handleListImputations))
	mux.Handle("POST /api/imputations", authed(s.handleUpsertImputation))
	mux.Handle("PUT /api/imputations/{id}", authed(s.handleUpsertImputation))
	mux.Handle("DELETE /api/imputations/{id}", authed(s.handleDeleteImputation))

	mux.Handle("GET /api/locks", authed(s.handleListLocks))
	mux.Handle("POST /api/locks", approver(s.handleSetLock))

	mux.Handle("GET /api/initial-data", authed(s.handleInitialData))
	mux.Handle("GET /api/weeks/{weekId}/summary", authed(s.handleWeekSummary))
	mux.Handle("GET /api/summary/{year}", authed(s.handleYearSummary))
	mux.Handle("GET /api/summary/{year}/export", authed(s.handleYearSummaryExport))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP)
	limited := s.limiter.Middleware(clientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracer.Middleware(limited(mux))),
	}
	return s
}

// Shutdown stops the listener and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// clientIP resolves the request origin, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
