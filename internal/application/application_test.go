package application

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/deployconf/internal/config"
	"github.com/eugenenazirov/deployconf/internal/environment"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, baseTestEnvironment(), logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := app.Provider().Configuration(); got != baseTestEnvironment() {
		t.Fatalf("unexpected provider configuration %+v", got)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewReturnsErrorForInvalidEnvironment(t *testing.T) {
	env := baseTestEnvironment()
	env.APIServerURL = "not a url"

	if _, err := New(baseTestConfig(":0"), env, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid environment")
	}
}

func TestNewReturnsErrorForMissingStaticDir(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.StaticDir = filepath.Join(t.TempDir(), "absent")

	if _, err := New(cfg, baseTestEnvironment(), zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing static directory")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandlerServesStaticBundle(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>index</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.js"), []byte("console.log('x')"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	handler, err := BuildRootHandler(http.NotFoundHandler(), dir)
	if err != nil {
		t.Fatalf("BuildRootHandler returned error: %v", err)
	}

	t.Run("asset", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main.js", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "console.log('x')" {
			t.Fatalf("unexpected asset response %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("client route falls back to index", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tabs/drinks", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "<html>index</html>" {
			t.Fatalf("unexpected fallback response %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestResolveProjectPathFindsGoMod(t *testing.T) {
	path, err := resolveProjectPath("go.mod")
	if err != nil {
		t.Fatalf("resolveProjectPath returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected go.mod to exist at %s: %v", path, err)
	}
}

func TestResolveProjectPathUnknownTarget(t *testing.T) {
	if _, err := resolveProjectPath("definitely-not-a-real-file"); err == nil {
		t.Fatalf("expected error for missing resource")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		Profile:              environment.ProfileDevelopment,
		EnvironmentDir:       "configs",
		AllowedOrigin:        "*",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}

func baseTestEnvironment() environment.Configuration {
	return environment.Configuration{
		APIServerURL: "http://127.0.0.1:5000",
		Auth: environment.AuthProvider{
			DomainPrefix: "dev-qj5uejue.us",
			Audience:     "duvy",
			ClientID:     "XTRoVnXpnLXhAt1G4TSwwhXB6jZuzCAV",
			CallbackURL:  "http://localhost:8100",
		},
	}
}
