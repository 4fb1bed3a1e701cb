// Package catalog persists candidate records and the pass log in SQLite.
//
// Candidates are written once per identity by the synchronization engine and
// never mutated afterward; passes form an append-only history. The package
// owns the schema and all SQL.
package catalog
