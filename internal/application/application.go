package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/deployconf/internal/api"
	"github.com/eugenenazirov/deployconf/internal/config"
	"github.com/eugenenazirov/deployconf/internal/environment"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	provider *environment.Provider
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application from the server settings and the loaded
// deployment configuration.
func New(cfg config.Config, env environment.Configuration, logger *zap.Logger) (*App, error) {
	provider, err := environment.NewProvider(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create configuration provider: %w", err)
	}

	handler := api.NewHandler(provider)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigin(cfg.AllowedOrigin),
	)

	rootHandler, err := BuildRootHandler(apiRouter, cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		provider: provider,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler routes API requests and, when staticDir is set, serves the
// client bundle from it with index.html as the fallback document.
func BuildRootHandler(apiHandler http.Handler, staticDir string) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)

	if staticDir == "" {
		mux.Handle("/", http.NotFoundHandler())
		return mux, nil
	}

	staticPath, err := resolveProjectPath(staticDir)
	if err != nil {
		return nil, err
	}
	indexPath := filepath.Join(staticPath, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("static directory %s has no index.html: %w", staticPath, err)
	}

	files := http.FileServer(http.Dir(staticPath))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		candidate := filepath.Join(staticPath, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Stringer("profile", a.provider.Profile()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Provider returns the configuration provider shared by the application.
func (a *App) Provider() *environment.Provider {
	return a.provider
}

// resolveProjectPath locates a file or directory. Absolute paths are used as
// is; relative ones are searched for by walking up from the working directory.
func resolveProjectPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		if _, err := os.Stat(relative); err != nil {
			return "", fmt.Errorf("unable to locate %s: %w", relative, err)
		}
		return relative, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
