// Package config loads, normalizes, and validates Orrery configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ORRERY_ASSISTANT_API_KEY. The Config type centralizes every knob the daemon
// and CLI need: archive and classifier endpoints, the naming prefix, the sync
// schedule, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a validated cron pattern, and clear validation errors.
package config
