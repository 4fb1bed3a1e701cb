// Package daemon wires the store, archive client, classification gateway,
// engine, and scheduler into the long-running orrery process and exposes the
// HTTP control surface the CLI talks to.
package daemon
