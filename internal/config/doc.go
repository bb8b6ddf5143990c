// Package config loads the server's runtime settings (listen port, timeouts,
// rate limits, CORS origin and the deployment profile selector) from a YAML
// file, environment variables and CLI flags. Precedence: CLI flags >
// environment variables > YAML config > defaults.
package config
