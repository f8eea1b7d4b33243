// Command functions serves the serverless functions over plain HTTP for local development.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yukikurage/taskflow/internal/app"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/functions"
	"github.com/yukikurage/taskflow/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	a, err := app.Build(cfg, app.Options{})
	if err != nil {
		fatal("failed to initialize application", err)
	}

	fns := functions.New(a.Auth, a.Users, a.Tasks, a.Attachments, a.Tokens)

	addr := ":" + getPort()
	srv := &http.Server{
		Addr:              addr,
		Handler:           fns.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("functions host starting", "addr", addr, "functions", fns.Names())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("functions host stopped", err)
	}
}

// getPort prefers FUNCTIONS_PORT so the host can run next to the web server.
func getPort() string {
	if p := os.Getenv("FUNCTIONS_PORT"); p != "" {
		return p
	}
	return "3001"
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
