package environment

import (
	"net/url"
	"strings"
	"unicode"

	"go.uber.org/multierr"
)

// Field names used in FieldError, matching the YAML keys.
const (
	FieldAPIServerURL     = "api_server_url"
	FieldAuthDomainPrefix = "auth.domain_prefix"
	FieldAuthAudience     = "auth.audience"
	FieldAuthClientID     = "auth.client_id"
	FieldAuthCallbackURL  = "auth.callback_url"
	FieldProduction       = "production"
)

// Validate checks every field and returns all violations combined. Each
// violation is a *FieldError.
func (c Configuration) Validate() error {
	var err error
	err = multierr.Append(err, validateAbsoluteURL(FieldAPIServerURL, c.APIServerURL))
	err = multierr.Append(err, validateDomainPrefix(c.Auth.DomainPrefix))
	err = multierr.Append(err, validateRequired(FieldAuthAudience, c.Auth.Audience))
	err = multierr.Append(err, validateRequired(FieldAuthClientID, c.Auth.ClientID))
	err = multierr.Append(err, validateAbsoluteURL(FieldAuthCallbackURL, c.Auth.CallbackURL))
	return err
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

func validateAbsoluteURL(field, value string) error {
	if err := validateRequired(field, value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil {
		return &FieldError{Field: field, Reason: "is not a valid URL"}
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return &FieldError{Field: field, Reason: "must be an absolute URL with scheme and host"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &FieldError{Field: field, Reason: "must use the http or https scheme"}
	}
	return nil
}

// validateDomainPrefix rejects full URLs; the prefix is a bare tenant segment.
func validateDomainPrefix(value string) error {
	if err := validateRequired(FieldAuthDomainPrefix, value); err != nil {
		return err
	}
	if strings.Contains(value, "://") || strings.Contains(value, "/") {
		return &FieldError{Field: FieldAuthDomainPrefix, Reason: "must be a domain segment, not a URL"}
	}
	if strings.ContainsFunc(value, unicode.IsSpace) {
		return &FieldError{Field: FieldAuthDomainPrefix, Reason: "must not contain whitespace"}
	}
	return nil
}
