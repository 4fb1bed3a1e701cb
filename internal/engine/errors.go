package engine

import "errors"

var (
	// ErrPassInProgress rejects a pass start while another pass is running.
	// Conflict class: the caller is told, never queued.
	ErrPassInProgress = errors.New("synchronization pass already in progress")

	// ErrFetch marks archive transport or parse failures, which are fatal to
	// the pass that hit them.
	ErrFetch = errors.New("archive fetch error")
)
