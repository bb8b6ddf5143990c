// Package application provides application initialization and dependency wiring.
// It turns a loaded deployment configuration into a Provider, builds the
// handlers, router and HTTP server, and keeps the main package focused on CLI
// parsing and orchestration.
package application
