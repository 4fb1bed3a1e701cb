// Package classifier talks to the external inference endpoint that decides
// undecided candidates.
//
// Classify never returns an error and never retries: transport failures,
// timeouts, non-2xx responses, and unparseable verdicts all collapse into a
// failed Result so the calling pass can count the record and move on.
package classifier
