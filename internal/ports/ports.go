package ports

import (
	"context"
	"time"

	"github.com/jhornung97/ETPApprover/internal/domain"
)

// SubmissionSource lists the repository records currently pending approval.
type SubmissionSource interface {
	PendingSubmissions(ctx context.Context) ([]map[string]any, error)
}

// TrackingStore is the durable idempotency ledger.
type TrackingStore interface {
	IsProcessed(ctx context.Context, recordID, author string) (bool, error)
	Record(ctx context.Context, entry domain.TrackingEntry) error
	Entries(ctx context.Context) ([]domain.TrackingEntry, error)
	Remove(ctx context.Context, recordID string) (bool, error)
	Clear(ctx context.Context) error
}

// HandleOracle answers whether a candidate chat handle actually exists.
// It may be absent entirely, which degrades resolution to best-effort.
type HandleOracle interface {
	HandleExists(ctx context.Context, handle string) (bool, error)
}

// ChatDeliverer sends a message to one or more chat users. Deliver picks a
// direct message for a single recipient and a group conversation otherwise.
type ChatDeliverer interface {
	Deliver(ctx context.Context, recipients []string, message string) error
}

// EmailSender delivers the per-run aggregate summary (and, in captured mode,
// status or error reports with the transcript attached).
type EmailSender interface {
	Send(ctx context.Context, subject, body string, attachment *Attachment) error
}

// Attachment is an optional file carried by a summary or error email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Decision is the operator's answer to an interactive confirmation prompt.
type Decision int

const (
	DecisionSend Decision = iota
	DecisionDecline
	DecisionSkip
)

// Confirmer gates a send behind a synchronous operator confirmation showing
// the exact recipient list and message body.
type Confirmer interface {
	Confirm(title string, recipients []string, message string) (Decision, error)
}

// Scheduler controls when recurring scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
