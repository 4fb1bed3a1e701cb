// Package control is the HTTP client the CLI uses to talk to a running
// daemon's control API.
package control
