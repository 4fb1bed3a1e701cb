// Package naming assigns stable letter-suffixed designations to confirmed
// candidates, grouping signals from one system under a shared numeric label.
package naming
