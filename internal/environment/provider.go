package environment

import "fmt"

// Provider hands out the process-wide Configuration. It is safe for
// concurrent use without locking: the value is never written after NewProvider.
type Provider struct {
	cfg Configuration
}

// NewProvider validates cfg and wraps it.
func NewProvider(cfg Configuration) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new provider: %w", err)
	}
	return &Provider{cfg: cfg}, nil
}

// Configuration returns a copy of the held configuration.
func (p *Provider) Configuration() Configuration {
	return p.cfg
}

// Profile returns the profile the configuration belongs to.
func (p *Provider) Profile() Profile {
	if p.cfg.Production {
		return ProfileProduction
	}
	return ProfileDevelopment
}
