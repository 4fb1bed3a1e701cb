package catalog

import (
	"strings"
	"time"
)

// Status represents the disposition of a candidate record.
type Status string

const (
	StatusConfirmed     Status = "confirmed"
	StatusCandidate     Status = "candidate"
	StatusFalsePositive Status = "false_positive"
)

var allStatuses = []Status{
	StatusConfirmed,
	StatusCandidate,
	StatusFalsePositive,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Statuses returns all known statuses in display order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValidStatus reports whether status is a known disposition.
func IsValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// ParseDisposition maps a raw archive disposition string onto the closed
// Status enum. Matching is case-insensitive and tolerant of the separator
// variants the archive has used over time. This is the only place raw
// disposition strings are interpreted; everything downstream operates on the
// enum.
func ParseDisposition(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.Join(strings.Fields(normalized), " ")
	switch normalized {
	case "confirmed":
		return StatusConfirmed, true
	case "candidate":
		return StatusCandidate, true
	case "false positive", "falsepositive":
		return StatusFalsePositive, true
	default:
		return "", false
	}
}

// Verdict captures the external classifier's output for one candidate,
// retained for audit when automation decided the disposition.
type Verdict struct {
	Label         string    `json:"label"`
	Probability   float64   `json:"probability"`
	Confidence    float64   `json:"confidence"`
	Explanation   string    `json:"explanation,omitempty"`
	BaseValue     *float64  `json:"base_value,omitempty"`
	Contributions []float64 `json:"contributions,omitempty"`
	FeatureNames  []string  `json:"feature_names,omitempty"`
}

// Candidate is one persisted observation from the remote archive.
type Candidate struct {
	ID                     int64
	Identity               string
	Status                 Status
	AssignedName           string
	ClassifiedByAutomation bool
	Verdict                *Verdict
	FieldsJSON             string
	Source                 string
	SyncedAt               time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// GroupBase returns the portion of an identity shared by all signals from the
// same physical system: everything before the first delimiter.
func GroupBase(identity string) string {
	if idx := strings.IndexByte(identity, '.'); idx >= 0 {
		return identity[:idx]
	}
	return identity
}

// PassError records one per-record failure inside a pass.
type PassError struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

// PassCounts aggregates the per-record outcomes of one pass.
type PassCounts struct {
	Fetched               int `json:"fetched"`
	New                   int `json:"new"`
	Confirmed             int `json:"confirmed"`
	Candidates            int `json:"candidates"`
	FalsePositives        int `json:"false_positives"`
	Dispatched            int `json:"dispatched"`
	GatewayConfirmed      int `json:"gateway_confirmed"`
	GatewayFalsePositives int `json:"gateway_false_positives"`
	Unsupported           int `json:"unsupported"`
	Errors                int `json:"errors"`
}

// PassRecord is the append-only log entry for one synchronization attempt.
// It is created when a pass starts and written once at pass end; it is never
// mutated afterward.
type PassRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Message    string
	Counts     PassCounts
	Details    []PassError
}

// Duration returns the wall time the pass took.
func (p *PassRecord) Duration() time.Duration {
	if p == nil || p.FinishedAt.Before(p.StartedAt) {
		return 0
	}
	return p.FinishedAt.Sub(p.StartedAt)
}
