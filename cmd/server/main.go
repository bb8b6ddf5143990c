package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/deployconf/internal/application"
	"github.com/eugenenazirov/deployconf/internal/config"
	"github.com/eugenenazirov/deployconf/internal/environment"
	"github.com/eugenenazirov/deployconf/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("deployconf", "Deployment configuration service - serves the API base URL and identity provider settings for a client application")
	configFile := kingpinApp.Flag("config", "Path to YAML server configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	profile := kingpinApp.Flag("profile", "Deployment profile (development or production)").String()
	environmentDir := kingpinApp.Flag("environment-dir", "Directory holding one <profile>.yaml file per profile").String()
	environmentFile := kingpinApp.Flag("environment-file", "Explicit deployment configuration file; must exist").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	envOverrides := &environment.Overrides{
		APIServerURL:     kingpinApp.Flag("api-server-url", "Backend API base URL").String(),
		AuthDomainPrefix: kingpinApp.Flag("auth-domain-prefix", "Identity provider domain prefix").String(),
		AuthAudience:     kingpinApp.Flag("auth-audience", "Identity provider API audience").String(),
		AuthClientID:     kingpinApp.Flag("auth-client-id", "Identity provider client identifier").String(),
		AuthCallbackURL:  kingpinApp.Flag("auth-callback-url", "URL the identity provider redirects to after login").String(),
	}

	serveCmd := kingpinApp.Command("serve", "Serve the deployment configuration over HTTP").Default()
	checkCmd := kingpinApp.Command("check", "Validate the deployment configuration and print it as JSON")

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *profile != "" {
		overrides.Profile = profile
	}

	if *environmentDir != "" {
		overrides.EnvironmentDir = environmentDir
	}

	if *environmentFile != "" {
		overrides.EnvironmentFile = environmentFile
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		kingpinApp.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Profile.IsProduction())
	if err != nil {
		kingpinApp.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	env, err := loadEnvironment(cfg, envOverrides, logger)
	if err != nil {
		logger.Fatal("failed to load deployment configuration",
			zap.Error(err),
			zap.Strings("fields", invalidFields(err)),
		)
	}

	switch command {
	case checkCmd.FullCommand():
		if err := runCheck(os.Stdout, env); err != nil {
			logger.Fatal("failed to print configuration", zap.Error(err))
		}
	case serveCmd.FullCommand():
		app, err := application.New(cfg, env, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}
}

func loadEnvironment(cfg config.Config, overrides *environment.Overrides, logger *zap.Logger) (environment.Configuration, error) {
	src := cfg.EnvironmentSource()
	src.Overrides = overrides

	env, err := environment.Load(src)
	if err != nil {
		return environment.Configuration{}, err
	}

	logger.Info("deployment configuration loaded",
		zap.Stringer("profile", cfg.Profile),
		zap.String("source", src.ProfilePath()),
		zap.Object("configuration", env),
	)
	return env, nil
}

func invalidFields(err error) []string {
	fieldErrs := environment.FieldErrors(err)
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	return fields
}

func runCheck(w io.Writer, env environment.Configuration) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(env); err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
