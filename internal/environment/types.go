package environment

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Profile names a deployment variant.
type Profile string

const (
	ProfileDevelopment Profile = "development"
	ProfileProduction  Profile = "production"
)

// ParseProfile resolves a profile name. Matching is case-insensitive and the
// short forms "dev" and "prod" are accepted.
func ParseProfile(raw string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "development", "dev":
		return ProfileDevelopment, nil
	case "production", "prod":
		return ProfileProduction, nil
	default:
		return "", fmt.Errorf("unknown deployment profile %q", raw)
	}
}

// IsProduction reports whether p is the production profile.
func (p Profile) IsProduction() bool {
	return p == ProfileProduction
}

func (p Profile) String() string {
	return string(p)
}

// AuthProvider addresses the external identity provider.
type AuthProvider struct {
	DomainPrefix string `json:"domainPrefix" yaml:"domain_prefix"`
	Audience     string `json:"audience" yaml:"audience"`
	ClientID     string `json:"clientId" yaml:"client_id"`
	CallbackURL  string `json:"callbackUrl" yaml:"callback_url"`
}

// Configuration is the deployment configuration shared with every consumer.
// It holds only value fields, so copies never alias each other.
type Configuration struct {
	Production   bool         `json:"production" yaml:"production"`
	APIServerURL string       `json:"apiServerUrl" yaml:"api_server_url"`
	Auth         AuthProvider `json:"auth" yaml:"auth"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler. The client identifier
// is masked.
func (c Configuration) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("production", c.Production)
	enc.AddString("api_server_url", c.APIServerURL)
	return enc.AddObject("auth", c.Auth)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (a AuthProvider) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("domain_prefix", a.DomainPrefix)
	enc.AddString("audience", a.Audience)
	enc.AddString("client_id", maskIdentifier(a.ClientID))
	enc.AddString("callback_url", a.CallbackURL)
	return nil
}

// maskIdentifier keeps the first four characters of id.
func maskIdentifier(id string) string {
	const visible = 4
	if len(id) <= visible {
		return strings.Repeat("*", len(id))
	}
	return id[:visible] + strings.Repeat("*", len(id)-visible)
}
