// Package api defines the wire types shared by the daemon's HTTP control
// surface and the CLI client, plus converters from the storage types.
package api
