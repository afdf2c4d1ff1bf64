package domain

import (
	"strings"
	"time"
)

// Submission is a normalized snapshot of one pending repository record.
// It is built fresh each poll cycle and never mutated.
type Submission struct {
	RecordID       string
	Title          string
	Author         string
	ThesisType     string
	ThesisSubtype  string
	Supervisors    []string
	ApprovalStatus string
}

// ChatEligible reports whether the degree type warrants chat notifications.
// Only Bachelor and Master submissions get pinged; everything else is still
// recorded as processed so later runs do not re-probe it.
func (s Submission) ChatEligible() bool {
	t := strings.ToLower(s.ThesisType)
	return strings.Contains(t, "bachelor") || strings.Contains(t, "master")
}

// TrackingEntry marks one (record, author) pair as already notified.
// Entries are append-only; the ledger order is the processing order.
type TrackingEntry struct {
	RecordID    string    `json:"record_id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Matches reports whether the entry covers the given submission identity.
// Only record ID and author participate: title and type may legitimately
// change on a resubmission edit without renotifying anyone.
func (e TrackingEntry) Matches(recordID, author string) bool {
	return e.RecordID == recordID && e.Author == author
}

// ResolvedIdentity binds a raw metadata name to a verified chat handle.
type ResolvedIdentity struct {
	RawName string
	Handle  string
}

// AttemptOutcome classifies one delivery attempt.
type AttemptOutcome string

const (
	OutcomeSent    AttemptOutcome = "sent"
	OutcomeFailed  AttemptOutcome = "failed"
	OutcomeSkipped AttemptOutcome = "skipped"
)

// NotificationAttempt is the ephemeral record of one send. It is never
// persisted; only the per-run counts surface in the report.
type NotificationAttempt struct {
	Recipients []string
	Group      bool
	Message    string
	Outcome    AttemptOutcome
}

// RunReport aggregates what one scan cycle actually did.
type RunReport struct {
	Started   time.Time
	Finished  time.Time
	Fetched   int
	Deduped   int
	Processed []Submission
	Attempts  []NotificationAttempt
}

// Counts returns the sent/failed/skipped totals over all attempts.
func (r RunReport) Counts() (sent, failed, skipped int) {
	for _, a := range r.Attempts {
		switch a.Outcome {
		case OutcomeSent:
			sent++
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return sent, failed, skipped
}
