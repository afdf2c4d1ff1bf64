// Package usecase drives one scan cycle: fetch pending submissions, resolve
// the involved people to chat handles, notify them, and record the work in
// the tracking ledger so the next cycle stays quiet.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/extract"
	"github.com/jhornung97/ETPApprover/internal/identity"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Deps are the collaborators one scan cycle needs. Chat and Confirmer may be
// nil: a nil Chat degrades every send to a skipped attempt, a nil Confirmer
// means every message goes out without asking.
type Deps struct {
	Source      ports.SubmissionSource
	Store       ports.TrackingStore
	Resolver    *identity.Resolver
	Chat        ports.ChatDeliverer
	Confirmer   ports.Confirmer
	AdminHandle string
	Logger      *slog.Logger
}

// Orchestrator owns the per-submission notification state machine.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger
}

func NewOrchestrator(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		deps:   deps,
		logger: logger.With("component", "orchestrator"),
	}
}

// Run executes one scan cycle. It fails only when the listing itself cannot
// be obtained; everything past that point is contained per submission.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{Started: time.Now()}

	records, err := o.deps.Source.PendingSubmissions(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending submissions: %w", err)
	}
	report.Fetched = len(records)
	o.logger.Info("fetched pending submissions", "count", len(records))

	for _, raw := range records {
		sub, err := extract.Descriptor(raw)
		if err != nil {
			o.logger.Warn("skipping malformed record", "error", err)
			continue
		}

		processed, err := o.deps.Store.IsProcessed(ctx, sub.RecordID, sub.Author)
		if err != nil {
			o.logger.Error("ledger lookup failed", "record", sub.RecordID, "error", err)
			continue
		}
		if processed {
			o.logger.Debug("already processed", "record", sub.RecordID, "author", sub.Author)
			report.Deduped++
			continue
		}

		o.process(ctx, sub, &report)
		report.Processed = append(report.Processed, sub)
	}

	report.Finished = time.Now()
	sent, failed, skipped := report.Counts()
	o.logger.Info("scan cycle finished",
		"fetched", report.Fetched,
		"deduped", report.Deduped,
		"processed", len(report.Processed),
		"sent", sent,
		"failed", failed,
		"skipped", skipped,
	)
	return report, nil
}

// process runs the notification state machine for one new submission and
// always finishes by recording it in the ledger, whatever the steps did.
func (o *Orchestrator) process(ctx context.Context, sub domain.Submission, report *domain.RunReport) {
	logger := o.logger.With("record", sub.RecordID, "author", sub.Author)
	logger.Info("processing submission", "title", sub.Title, "type", sub.ThesisType)

	if !sub.ChatEligible() {
		logger.Info("thesis type not chat-eligible, recording without notifications")
	} else {
		o.notifySupervisors(ctx, sub, report, logger)
		o.notifyAuthor(ctx, sub, report, logger)
	}

	entry := domain.TrackingEntry{
		RecordID:    sub.RecordID,
		Author:      sub.Author,
		Title:       sub.Title,
		ProcessedAt: time.Now(),
	}
	if err := o.deps.Store.Record(ctx, entry); err != nil {
		logger.Error("recording submission in ledger failed", "error", err)
	}
}

// notifySupervisors resolves every supervisor and sends one shared message.
// Resolution is all-or-nothing: a single unresolved supervisor aborts the
// whole step, since a partial group chat would hide the submission from the
// people who must approve it.
func (o *Orchestrator) notifySupervisors(ctx context.Context, sub domain.Submission, report *domain.RunReport, logger *slog.Logger) {
	if len(sub.Supervisors) == 0 {
		logger.Warn("submission lists no supervisors, skipping supervisor step")
		return
	}

	handles := make([]string, 0, len(sub.Supervisors)+1)
	for _, name := range sub.Supervisors {
		id, err := o.deps.Resolver.ResolveSupervisor(ctx, name)
		if err != nil {
			var unresolved *domain.UnresolvedIdentityError
			if errors.As(err, &unresolved) {
				logger.Warn("supervisor could not be resolved, aborting supervisor step",
					"supervisor", unresolved.RawName,
					"tried", unresolved.Tried,
				)
			} else {
				logger.Error("supervisor resolution failed", "supervisor", name, "error", err)
			}
			return
		}
		handles = append(handles, id.Handle)
	}

	recipients := dedupe(append(handles, o.deps.AdminHandle))
	message := supervisorMessage(sub, identity.Parse(sub.Author).DisplayName(), o.deps.AdminHandle)

	o.send(ctx, sub, recipients, message, report, logger.With("step", "supervisors"))
}

// notifyAuthor asks the author for the open access permission, or leaves a
// self-note when the author is the admin. Runs even when the supervisor step
// failed; the permission question does not depend on the approvers.
func (o *Orchestrator) notifyAuthor(ctx context.Context, sub domain.Submission, report *domain.RunReport, logger *slog.Logger) {
	id, ok := o.deps.Resolver.ResolveAuthor(ctx, sub.Author)
	if !ok {
		logger.Info("author has no chat handle, skipping permission request")
		return
	}

	stepLogger := logger.With("step", "author")

	if id.Handle == o.deps.AdminHandle {
		o.send(ctx, sub, []string{o.deps.AdminHandle}, selfNote(sub), report, stepLogger)
		return
	}

	recipients := []string{o.deps.AdminHandle, id.Handle}
	message := authorMessage(sub, identity.Parse(sub.Author).FirstGiven())

	o.send(ctx, sub, recipients, message, report, stepLogger)
}

// send runs the confirmation gate and then delivers, appending the attempt
// outcome to the report.
func (o *Orchestrator) send(ctx context.Context, sub domain.Submission, recipients []string, message string, report *domain.RunReport, logger *slog.Logger) {
	attempt := domain.NotificationAttempt{
		Recipients: recipients,
		Group:      len(recipients) > 1,
		Message:    message,
	}

	if o.deps.Confirmer != nil {
		decision, err := o.deps.Confirmer.Confirm(sub.Title, recipients, message)
		if err != nil {
			logger.Error("confirmation failed, not sending", "error", err)
			decision = ports.DecisionDecline
		}
		switch decision {
		case ports.DecisionDecline:
			logger.Info("send declined by operator")
			attempt.Outcome = domain.OutcomeSkipped
			report.Attempts = append(report.Attempts, attempt)
			return
		case ports.DecisionSkip:
			logger.Info("submission deferred by operator")
			attempt.Outcome = domain.OutcomeSkipped
			report.Attempts = append(report.Attempts, attempt)
			return
		}
	}

	if o.deps.Chat == nil {
		logger.Info("chat delivery disabled, message not sent", "recipients", recipients)
		attempt.Outcome = domain.OutcomeSkipped
		report.Attempts = append(report.Attempts, attempt)
		return
	}

	if err := o.deps.Chat.Deliver(ctx, recipients, message); err != nil {
		logger.Error("delivery failed", "recipients", recipients, "error", err)
		attempt.Outcome = domain.OutcomeFailed
		report.Attempts = append(report.Attempts, attempt)
		return
	}

	logger.Info("notification delivered", "recipients", recipients)
	attempt.Outcome = domain.OutcomeSent
	report.Attempts = append(report.Attempts, attempt)
}

// dedupe keeps the first occurrence of each handle, preserving order.
func dedupe(handles []string) []string {
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}
