package engine

import (
	"orrery/internal/archive"
	"orrery/internal/catalog"
	"orrery/internal/classifier"
)

type outcomeKind int

const (
	// outcomePersist writes a record with the resolved status.
	outcomePersist outcomeKind = iota
	// outcomeSkipUnsupported leaves the record for a future pass; the model
	// returned a label outside the supported set.
	outcomeSkipUnsupported
	// outcomeSkipUndispatched leaves an undecided record untouched because no
	// classifier is configured.
	outcomeSkipUndispatched
	// outcomeFailed records a per-item failure; the record stays absent so
	// the next pass rediscovers it.
	outcomeFailed
	// outcomeUnknownStatus marks a remote disposition outside the known set.
	outcomeUnknownStatus
)

// outcome is the pure description of what one remote row should do to local
// state. Dispatch logic produces outcomes; apply folds them into persistence
// and counters. Keeping the two apart makes the dispatch rules testable
// without a database.
type outcome struct {
	identity   string
	kind       outcomeKind
	remote     catalog.Status
	status     catalog.Status
	automated  bool
	dispatched bool
	verdict    *catalog.Verdict
	record     *archive.Record
	reason     string
}

// fromGatewayResult maps a classification result for an undecided row onto an
// outcome.
func fromGatewayResult(identity string, result classifier.Result) outcome {
	base := outcome{
		identity:   identity,
		remote:     catalog.StatusCandidate,
		dispatched: true,
		record:     result.Record,
	}
	switch result.Outcome {
	case classifier.OutcomeConfirmed:
		base.kind = outcomePersist
		base.status = catalog.StatusConfirmed
		base.automated = true
		base.verdict = result.Verdict
	case classifier.OutcomeFalsePositive:
		base.kind = outcomePersist
		base.status = catalog.StatusFalsePositive
		base.automated = true
		base.verdict = result.Verdict
	case classifier.OutcomeOther:
		base.kind = outcomeSkipUnsupported
		if result.Verdict != nil {
			base.reason = result.Verdict.Label
		}
	default:
		base.kind = outcomeFailed
		base.reason = result.Error
	}
	return base
}

// directOutcome maps a row whose status the archive already decided onto a
// persist outcome.
func directOutcome(identity string, status catalog.Status, record *archive.Record) outcome {
	return outcome{
		identity: identity,
		kind:     outcomePersist,
		remote:   status,
		status:   status,
		record:   record,
	}
}

func unknownStatusOutcome(identity, rawDisposition string) outcome {
	return outcome{
		identity: identity,
		kind:     outcomeUnknownStatus,
		reason:   "unknown disposition " + rawDisposition,
	}
}

func undispatchedOutcome(identity string) outcome {
	return outcome{
		identity: identity,
		kind:     outcomeSkipUndispatched,
		remote:   catalog.StatusCandidate,
	}
}
