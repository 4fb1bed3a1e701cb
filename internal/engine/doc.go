// Package engine implements the synchronization pass: diff the remote
// catalog against the local store, dispatch undecided rows through the
// classification gateway, assign designations to confirmed discoveries, and
// append the pass history.
//
// One pass runs at a time. Record processing within a pass is sequential,
// which bounds classifier load to one in-flight call and keeps designation
// allocation free of races.
package engine
