package environment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIServerURL     = "API_SERVER_URL"
	EnvAuthDomainPrefix = "AUTH_DOMAIN_PREFIX"
	EnvAuthAudience     = "AUTH_AUDIENCE"
	EnvAuthClientID     = "AUTH_CLIENT_ID"
	EnvAuthCallbackURL  = "AUTH_CALLBACK_URL"
)

// Source selects where a Configuration is loaded from.
// Precedence: Overrides > environment variables > profile file.
type Source struct {
	Profile Profile
	// Dir holds one <profile>.yaml file per profile. Ignored when File is set.
	Dir string
	// File names an explicit profile file. It must exist.
	File      string
	Overrides *Overrides
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Overrides holds command-line values. Nil or empty fields are ignored.
type Overrides struct {
	APIServerURL     *string
	AuthDomainPrefix *string
	AuthAudience     *string
	AuthClientID     *string
	AuthCallbackURL  *string
}

// fileConfig mirrors Configuration but keeps production optional so a
// profile file may leave it to the profile.
type fileConfig struct {
	Production   *bool        `yaml:"production"`
	APIServerURL string       `yaml:"api_server_url"`
	Auth         AuthProvider `yaml:"auth"`
}

// ProfilePath returns the profile file Load reads for src.
func (s Source) ProfilePath() string {
	if s.File != "" {
		return s.File
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, string(s.profile())+".yaml")
}

func (s Source) profile() Profile {
	if s.Profile == "" {
		return ProfileDevelopment
	}
	return s.Profile
}

// Load resolves and validates the Configuration for src. It fails with
// ErrConfigurationMissing when no source supplies any value (or an explicit
// file is absent) and with ErrConfigurationMalformed when a field is invalid.
func Load(src Source) (Configuration, error) {
	profile := src.profile()
	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var cfg Configuration
	supplied := false

	fileCfg, err := loadFromFile(src.ProfilePath(), src.File != "")
	if err != nil {
		return Configuration{}, err
	}
	if fileCfg != nil {
		if fileCfg.Production != nil && *fileCfg.Production != profile.IsProduction() {
			return Configuration{}, fmt.Errorf("load profile %s: %w", profile, &FieldError{
				Field:  FieldProduction,
				Reason: fmt.Sprintf("contradicts profile %q", profile),
			})
		}
		cfg.APIServerURL = strings.TrimSpace(fileCfg.APIServerURL)
		cfg.Auth = AuthProvider{
			DomainPrefix: strings.TrimSpace(fileCfg.Auth.DomainPrefix),
			Audience:     strings.TrimSpace(fileCfg.Auth.Audience),
			ClientID:     strings.TrimSpace(fileCfg.Auth.ClientID),
			CallbackURL:  strings.TrimSpace(fileCfg.Auth.CallbackURL),
		}
		supplied = true
	}

	if applyEnv(&cfg, lookup) {
		supplied = true
	}
	if applyOverrides(&cfg, src.Overrides) {
		supplied = true
	}

	if !supplied {
		return Configuration{}, fmt.Errorf("load profile %s: no file at %s and no environment values: %w",
			profile, src.ProfilePath(), ErrConfigurationMissing)
	}

	cfg.Production = profile.IsProduction()

	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("validate profile %s: %w", profile, err)
	}
	return cfg, nil
}

// loadFromFile returns nil without error when an implicit profile file is absent.
func loadFromFile(path string, required bool) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				return nil, fmt.Errorf("read %s: %w", path, ErrConfigurationMissing)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Unknown keys are rejected so a misspelled or camelCase key is not
	// silently dropped.
	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w: %w", path, ErrConfigurationMalformed, err)
	}
	return &fc, nil
}

func applyEnv(cfg *Configuration, lookup func(string) (string, bool)) bool {
	applied := false
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				*dst = v
				applied = true
			}
		}
	}

	set(&cfg.APIServerURL, EnvAPIServerURL)
	set(&cfg.Auth.DomainPrefix, EnvAuthDomainPrefix)
	set(&cfg.Auth.Audience, EnvAuthAudience)
	set(&cfg.Auth.ClientID, EnvAuthClientID)
	set(&cfg.Auth.CallbackURL, EnvAuthCallbackURL)
	return applied
}

func applyOverrides(cfg *Configuration, overrides *Overrides) bool {
	if overrides == nil {
		return false
	}
	applied := false
	set := func(dst *string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			*dst = strings.TrimSpace(*v)
			applied = true
		}
	}

	set(&cfg.APIServerURL, overrides.APIServerURL)
	set(&cfg.Auth.DomainPrefix, overrides.AuthDomainPrefix)
	set(&cfg.Auth.Audience, overrides.AuthAudience)
	set(&cfg.Auth.ClientID, overrides.AuthClientID)
	set(&cfg.Auth.CallbackURL, overrides.AuthCallbackURL)
	return applied
}
