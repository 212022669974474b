package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"spm-client/internal/analytics"
	"spm-client/internal/auth"
	"spm-client/internal/config"
	"spm-client/internal/httpx"
	"spm-client/internal/logger"
	"spm-client/internal/projects"
	"spm-client/internal/tasks"
	"spm-client/internal/web"
)

func main() {
	cfg := config.Load()

	log := logger.New(&logger.Config{
		Level:      cfg.LogLevel,
		Output:     os.Stderr,
		JSON:       cfg.LogJSON,
		TimeFormat: time.RFC3339,
	})
	logger.SetDefault(log)

	// No cookie jar: every upstream call carries the signed-in employee's
	// own cookies and id from the request context.
	service := func(name, baseURL string) *httpx.Client {
		c, err := httpx.New(httpx.Options{
			BaseURL: baseURL,
			Timeout: cfg.HTTPTimeout,
			Retries: cfg.HTTPRetries,
			Logger:  log.With("service", name),
		})
		if err != nil {
			log.Error("invalid service config", "service", name, "err", err)
			os.Exit(1)
		}
		return c
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h, err := web.NewHandler(web.Options{
		Tasks:          tasks.NewClient(service("tasks", cfg.TasksAPIURL)),
		Projects:       projects.NewClient(service("projects", cfg.ProjectsAPIURL)),
		Auth:           auth.NewClient(service("login", cfg.LoginAPIURL)),
		SessionSecret:  cfg.SessionSecret,
		SessionTTL:     cfg.SessionTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		Recorder:       analytics.NewRecorder(reg, log),
		Gatherer:       reg,
		Logger:         log,
	})
	if err != nil {
		log.Error("failed to build handler", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("web server is running", "addr", cfg.ListenAddr,
		"tasks", cfg.TasksAPIURL, "projects", cfg.ProjectsAPIURL, "login", cfg.LoginAPIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
