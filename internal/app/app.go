// Package app wires configuration to the scan use case and owns the run
// lifecycle: one-shot scans, ledger bootstrap, and the scheduled watch loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/console"
	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/extract"
	"github.com/jhornung97/ETPApprover/internal/identity"
	"github.com/jhornung97/ETPApprover/internal/infrastructure/email"
	"github.com/jhornung97/ETPApprover/internal/infrastructure/mattermost"
	"github.com/jhornung97/ETPApprover/internal/infrastructure/repository"
	"github.com/jhornung97/ETPApprover/internal/infrastructure/scheduler"
	"github.com/jhornung97/ETPApprover/internal/logging"
	"github.com/jhornung97/ETPApprover/internal/ports"
	"github.com/jhornung97/ETPApprover/internal/tracking"
	"github.com/jhornung97/ETPApprover/internal/usecase"
)

// Options select the run behavior of a scan.
type Options struct {
	CaptureLog  bool // keep a transcript and attach it to the summary email
	Interactive bool // confirm every outgoing message on the terminal
	DryRun      bool // resolve and preview, but deliver and record nothing
}

// Application is a fully wired instance ready to scan, bootstrap, or watch.
type Application struct {
	cfg        config.Config
	opts       Options
	logger     *slog.Logger
	transcript *logging.Transcript

	repo   *repository.Client
	chat   *mattermost.Client
	store  ports.TrackingStore
	email  ports.EmailSender
	closer func() error
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, opts Options) *Application {
	var logger *slog.Logger
	var transcript *logging.Transcript
	if opts.CaptureLog {
		logger, transcript = logging.NewCaptured(cfg.Logging.Level)
	} else {
		logger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		transcript: transcript,
	}

	a.repo = repository.NewClient(cfg.Repository, nil, logger.With("component", "repository"))

	if cfg.Chat.Token != "" && cfg.Chat.APIURL != "" {
		a.chat = mattermost.NewClient(cfg.Chat, logger.With("component", "chat"))
	} else {
		logger.Warn("chat is not configured, notifications will be skipped")
	}

	if cfg.Email.SMTPHost != "" {
		a.email = email.NewSender(cfg.Email, logger.With("component", "email"))
	}

	a.store, a.closer = openStore(cfg.Tracking, logger)
	if opts.DryRun {
		a.store = previewStore{a.store}
	}

	return a
}

// Close releases the tracking backend, if it holds resources.
func (a *Application) Close() error {
	if a.closer != nil {
		return a.closer()
	}
	return nil
}

// Scan runs a single cycle: authenticate, notify, record, and report by mail.
func (a *Application) Scan(ctx context.Context) error {
	if err := a.repo.Login(ctx); err != nil {
		a.reportError(ctx, err)
		return err
	}

	var confirmer ports.Confirmer
	if a.opts.Interactive || a.opts.DryRun {
		confirmer = console.NewConfirmer(os.Stdin, os.Stdout)
	}

	var chat ports.ChatDeliverer
	var oracle ports.HandleOracle
	if a.chat != nil {
		oracle = a.chat
		if !a.opts.DryRun {
			chat = a.chat
		}
	}

	orchestrator := usecase.NewOrchestrator(usecase.Deps{
		Source:      a.repo,
		Store:       a.store,
		Resolver:    identity.NewResolver(a.cfg.Chat.Overrides, oracle, a.logger.With("component", "resolver")),
		Chat:        chat,
		Confirmer:   confirmer,
		AdminHandle: a.cfg.Chat.AdminHandle,
		Logger:      a.logger,
	})

	report, err := orchestrator.Run(ctx)
	if err != nil {
		a.reportError(ctx, err)
		return err
	}

	a.reportRun(ctx, report, confirmer)
	return nil
}

// Bootstrap records every currently pending submission without notifying
// anyone, so a fresh deployment starts quiet instead of pinging about
// submissions that were handled before the bot existed.
func (a *Application) Bootstrap(ctx context.Context) error {
	if err := a.repo.Login(ctx); err != nil {
		return err
	}

	records, err := a.repo.PendingSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("list pending submissions: %w", err)
	}

	recorded := 0
	for _, raw := range records {
		sub, err := extract.Descriptor(raw)
		if err != nil {
			a.logger.Warn("skipping malformed record", "error", err)
			continue
		}
		processed, err := a.store.IsProcessed(ctx, sub.RecordID, sub.Author)
		if err != nil {
			return fmt.Errorf("ledger lookup: %w", err)
		}
		if processed {
			continue
		}
		entry := domain.TrackingEntry{
			RecordID:    sub.RecordID,
			Author:      sub.Author,
			Title:       sub.Title,
			ProcessedAt: time.Now(),
		}
		if err := a.store.Record(ctx, entry); err != nil {
			return fmt.Errorf("record %s: %w", sub.RecordID, err)
		}
		recorded++
	}

	a.logger.Info("bootstrap finished", "fetched", len(records), "recorded", recorded)
	return nil
}

// Watch runs Scan on the configured cron schedule until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	cronRunner, err := scheduler.New(a.cfg.Scheduler, a.logger.With("component", "scheduler"))
	if err != nil {
		return err
	}

	job := func(now time.Time) {
		a.logger.Info("scheduled scan starting", "at", now)
		if a.transcript != nil {
			a.transcript.Reset()
		}
		if err := a.Scan(ctx); err != nil {
			a.logger.Error("scheduled scan failed", "error", err)
		}
	}

	err = cronRunner.Start(ctx, job)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := cronRunner.Stop(stopCtx); stopErr != nil {
		a.logger.Warn("scheduler did not stop cleanly", "error", stopErr)
	}
	return err
}

// Store exposes the tracking ledger for the track subcommands.
func (a *Application) Store() ports.TrackingStore {
	return a.store
}

// reportRun sends the aggregate summary mail for one finished cycle. With no
// new submissions a status mail goes out only in captured (scheduled) mode.
func (a *Application) reportRun(ctx context.Context, report domain.RunReport, confirmer ports.Confirmer) {
	if a.email == nil || a.opts.DryRun {
		return
	}

	var subject, body string
	switch {
	case len(report.Processed) > 0:
		subject = fmt.Sprintf("New Pending Thesis Submissions - %d item(s)", len(report.Processed))
		body = summaryEmailBody(report)
	case a.transcript != nil:
		subject = "ETPApprover Status - No new submissions"
		body = fmt.Sprintf("Scan finished at %s.\n\nFetched %d pending submission(s); all were already processed.\n",
			report.Finished.Format(time.RFC1123), report.Fetched)
	default:
		return
	}

	if confirmer != nil {
		decision, err := confirmer.Confirm("Run summary email", []string{a.cfg.Email.To}, body)
		if err != nil || decision != ports.DecisionSend {
			a.logger.Info("summary email not sent")
			return
		}
	}

	if err := a.email.Send(ctx, subject, body, a.attachment()); err != nil {
		a.logger.Error("summary email failed", "error", err)
	}
}

// reportError sends an error mail with the transcript attached; only the
// scheduled (captured) mode mails errors, interactive runs show them live.
func (a *Application) reportError(ctx context.Context, runErr error) {
	if a.email == nil || a.transcript == nil || a.opts.DryRun {
		return
	}

	body := fmt.Sprintf("The scan at %s failed:\n\n%v\n\nThe run log is attached.\n",
		time.Now().Format(time.RFC1123), runErr)

	if err := a.email.Send(ctx, "ETPApprover Error", body, a.attachment()); err != nil {
		a.logger.Error("error email failed", "error", err)
	}
}

func (a *Application) attachment() *ports.Attachment {
	if a.transcript == nil || a.transcript.Len() == 0 {
		return nil
	}
	return &ports.Attachment{Filename: "run.log", Content: a.transcript.Bytes()}
}

// openStore selects the tracking backend. A sqlite backend that cannot be
// opened degrades to the JSON file ledger so a scan still dedupes.
func openStore(cfg config.TrackingConfig, logger *slog.Logger) (ports.TrackingStore, func() error) {
	if cfg.Backend == "sqlite" {
		store, err := tracking.NewSQLiteStore(cfg.DSN)
		if err == nil {
			return store, store.Close
		}
		logger.Warn("sqlite ledger unavailable, falling back to file backend",
			"dsn", cfg.DSN, "error", err)
	}

	path := cfg.Path
	if path == "" {
		path = tracking.DefaultPath("processed_submissions.json")
	}
	return tracking.NewFileStore(path, logger.With("component", "tracking")), nil
}

// previewStore makes a dry run leave the ledger untouched while still
// answering dedupe lookups from the real backend.
type previewStore struct {
	ports.TrackingStore
}

func (previewStore) Record(ctx context.Context, entry domain.TrackingEntry) error {
	return nil
}
