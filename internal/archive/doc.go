// Package archive is the read-only client for the remote candidate catalog.
//
// Two query shapes are used: a full-table identity+disposition projection for
// diffing, and a per-identity full-field fetch performed only for records
// confirmed to be new.
package archive
