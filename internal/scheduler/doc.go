// Package scheduler owns the periodic synchronization trigger: a cron
// pattern with timezone, start/stop/reconfigure transitions, and a manual
// trigger that shares the engine's single-flight guard.
package scheduler
