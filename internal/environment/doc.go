// Package environment owns the deployment configuration: the API base URL
// and identity provider descriptor a client application is pointed at. The
// value is selected by a deployment profile, loaded once at startup from a
// profile file, environment variables and CLI overrides, validated, and then
// shared read-only through a Provider.
package environment
