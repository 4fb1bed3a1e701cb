// Command orrery is the operator CLI for the orrery daemon. It talks to the
// daemon's HTTP control API to trigger passes, inspect the catalog, and
// manage the scheduler.
package main
