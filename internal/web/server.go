// Package web serves the SPA shell for each view and a small JSON API in
// front of the tasks, projects and login services.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"spm-client/internal/analytics"
	"spm-client/internal/auth"
	"spm-client/internal/logger"
	"spm-client/internal/projects"
	"spm-client/internal/tasks"
)

const loginPath = "/login"

type Options struct {
	Tasks    *tasks.Client
	Projects *projects.Client
	Auth     *auth.Client

	SessionSecret  []byte
	SessionTTL     time.Duration
	AllowedOrigins []string

	Recorder *analytics.Recorder
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Tasks == nil || opts.Projects == nil || opts.Auth == nil {
		return nil, errors.New("tasks, projects and auth clients are required")
	}
	if len(opts.SessionSecret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Recorder == nil {
		opts.Recorder = analytics.NewRecorder(nil, opts.Logger)
	}

	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	m := auth.New(opts.SessionSecret)
	a := &api{tasks: opts.Tasks, projects: opts.Projects, rec: opts.Recorder}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	for _, v := range views {
		if v.Public {
			handle(mux, rr, "GET "+v.Path, v.Title+" view", "public", m.Optional(viewHandler(v)))
			continue
		}
		handle(mux, rr, "GET "+v.Path, v.Title+" view", "session", m.Guard(loginPath, viewHandler(v)))
	}

	handle(mux, rr, "GET /api/tasks", "Normalized task list", "session", m.Wrap(a.listTasks))
	handle(mux, rr, "GET /api/tasks/groups", "Team group keys and counts", "session", m.Wrap(a.listTaskGroups))
	handle(mux, rr, "POST /api/tasks", "Create a task", "session", m.Wrap(a.createTask))
	handle(mux, rr, "PUT /api/tasks/{id}/project", "Move a task to a project", "session", m.Wrap(a.moveTask))
	handle(mux, rr, "POST /api/tasks/attachments", "Upload a task attachment", "session", m.Wrap(a.uploadAttachment))

	handle(mux, rr, "GET /api/projects", "List projects", "session", m.Wrap(a.listProjects))
	handle(mux, rr, "POST /api/projects", "Create a project", "session", m.Wrap(a.createProject))
	handle(mux, rr, "PATCH /api/projects/{id}/archive", "Archive a project", "session", m.Wrap(a.archiveProject))

	handle(mux, rr, "POST /api/login", "Sign in and set the session cookie", "public",
		auth.LoginHandler(opts.Auth, opts.SessionSecret, opts.SessionTTL, opts.Recorder))
	handle(mux, rr, "POST /api/register", "Create an employee account", "public",
		auth.RegisterHandler(opts.Auth, opts.SessionSecret, opts.SessionTTL))
	handle(mux, rr, "POST /api/logout", "Clear the session cookie", "public", m.Optional(auth.LogoutHandler(opts.Recorder)))
	handle(mux, rr, "GET /api/me", "Current employee", "session", m.Wrap(auth.MeHandler()))
	handle(mux, rr, "POST /api/events/view", "Record a client-side view switch", "public",
		m.Optional(analytics.ViewOpenedHandler(opts.Recorder)))

	handle(mux, rr, "GET /api/routes", "This route table", "public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", requestIDHeader,
			"X-Platform", "X-App-Version", "X-Session-Id", "X-Device-Locale",
		},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})

	return withRequestID(opts.Logger, c.Handler(mux)), nil
}
