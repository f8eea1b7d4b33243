// Command lambda runs one serverless function, selected by FUNCTION_NAME, on AWS Lambda.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
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

	name := os.Getenv("FUNCTION_NAME")
	if name == "" {
		fatal("missing function name", errors.New("FUNCTION_NAME must be set"))
	}

	a, err := app.Build(cfg, app.Options{})
	if err != nil {
		fatal("failed to initialize application", err)
	}

	handler, err := functions.New(a.Auth, a.Users, a.Tasks, a.Attachments, a.Tokens).LambdaHandler(name)
	if err != nil {
		fatal("failed to select function", err)
	}

	slog.Info("lambda starting", "function", name)
	lambda.Start(handler)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
