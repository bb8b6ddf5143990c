package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/deployconf/internal/environment"
)

const (
	defaultPort           = "8080"
	defaultEnvironmentDir = "configs"
	defaultAllowedOrigin  = "*"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string
	Profile              environment.Profile
	EnvironmentDir       string
	EnvironmentFile      string
	StaticDir            string
	AllowedOrigin        string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	Profile              string        `yaml:"profile"`
	EnvironmentDir       string        `yaml:"environment_dir"`
	EnvironmentFile      string        `yaml:"environment_file"`
	StaticDir            string        `yaml:"static_dir"`
	AllowedOrigin        string        `yaml:"allowed_origin"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	Profile         *string
	EnvironmentDir  *string
	EnvironmentFile *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// EnvironmentSource describes where the deployment configuration for the
// selected profile is read from.
func (c Config) EnvironmentSource() environment.Source {
	return environment.Source{
		Profile: c.Profile,
		Dir:     c.EnvironmentDir,
		File:    c.EnvironmentFile,
	}
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Profile:              environment.ProfileDevelopment,
		EnvironmentDir:       defaultEnvironmentDir,
		AllowedOrigin:        defaultAllowedOrigin,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Profile != "" {
		profile, err := environment.ParseProfile(yamlCfg.Profile)
		if err != nil {
			return err
		}
		cfg.Profile = profile
	}

	if yamlCfg.EnvironmentDir != "" {
		cfg.EnvironmentDir = yamlCfg.EnvironmentDir
	}

	if yamlCfg.EnvironmentFile != "" {
		cfg.EnvironmentFile = yamlCfg.EnvironmentFile
	}

	if yamlCfg.StaticDir != "" {
		cfg.StaticDir = yamlCfg.StaticDir
	}

	if yamlCfg.AllowedOrigin != "" {
		cfg.AllowedOrigin = yamlCfg.AllowedOrigin
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("DEPLOY_PROFILE")); raw != "" {
		profile, err := environment.ParseProfile(raw)
		if err != nil {
			return fmt.Errorf("DEPLOY_PROFILE: %w", err)
		}
		cfg.Profile = profile
	}

	if dir := strings.TrimSpace(os.Getenv("ENVIRONMENT_DIR")); dir != "" {
		cfg.EnvironmentDir = dir
	}

	if file := strings.TrimSpace(os.Getenv("ENVIRONMENT_FILE")); file != "" {
		cfg.EnvironmentFile = file
	}

	if dir := strings.TrimSpace(os.Getenv("STATIC_DIR")); dir != "" {
		cfg.StaticDir = dir
	}

	if origin := strings.TrimSpace(os.Getenv("ALLOWED_ORIGIN")); origin != "" {
		cfg.AllowedOrigin = origin
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: invalid number %q", rps)
		}
		cfg.RateLimitRPS = value
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: invalid integer %q", burst)
		}
		cfg.RateLimitBurst = value
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides. Negative rate limit
// values mark flags that were not given.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Profile != nil && *overrides.Profile != "" {
		profile, err := environment.ParseProfile(*overrides.Profile)
		if err != nil {
			return fmt.Errorf("parse profile: %w", err)
		}
		cfg.Profile = profile
	}

	if overrides.EnvironmentDir != nil && *overrides.EnvironmentDir != "" {
		cfg.EnvironmentDir = *overrides.EnvironmentDir
	}

	if overrides.EnvironmentFile != nil && *overrides.EnvironmentFile != "" {
		cfg.EnvironmentFile = *overrides.EnvironmentFile
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0, got %d", cfg.RateLimitBurst)
	}
	if cfg.EnvironmentDir == "" && cfg.EnvironmentFile == "" {
		return fmt.Errorf("either an environment directory or file is required")
	}
	return nil
}
