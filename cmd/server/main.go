package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/app"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/handlers"
	"github.com/yukikurage/taskflow/internal/logger"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/web"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database, run migrations and build services
	a, err := app.Build(cfg, app.Options{UseRemote: true})
	if err != nil {
		fatal("failed to initialize application", err)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(middleware.RequestLogging(), handlers.Recovery())
	r.MaxMultipartMemory = constants.MaxCommentUploadSize

	store, err := sessionStore(cfg)
	if err != nil {
		fatal("failed to create session store", err)
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	tmpl, err := web.Templates()
	if err != nil {
		fatal("failed to parse templates", err)
	}
	r.SetHTMLTemplate(tmpl)

	// The web layer authenticates against the remote API when there is one
	var authenticator handlers.Authenticator = a.Auth
	if a.Remote != nil {
		authenticator = a.Remote
	}

	router := &handlers.Router{
		Pages:         handlers.NewPageHandler(a.Tasks, a.Users),
		Auth:          handlers.NewAuthHandler(authenticator),
		Tasks:         handlers.NewTaskHandler(a.Tasks, a.Comments, a.Users),
		Comments:      handlers.NewCommentHandler(a.Comments),
		Files:         handlers.NewFileHandler(a.Tasks, a.Attachments),
		Users:         handlers.NewUserHandler(a.Users),
		TaskAccess:    a.Tasks,
		PresignBypass: cfg.PresignBypass(),
	}
	router.Register(r)

	// Start server
	addr := ":" + cfg.Port
	slog.Info("server starting",
		"addr", addr,
		"env", cfg.AppEnv,
		"remote_api", cfg.RemoteAPIURL != "",
		"attachments", a.Attachments.Configured(),
	)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		fatal("failed to start server", err)
	}
}

// sessionStore uses Redis when REDIS_HOST is set and a signed cookie otherwise.
func sessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.RedisHost == "" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(options)
	return store, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
