// Package scheduler runs the scan job on a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// Cron wraps a cron runner configured from the scheduler section.
type Cron struct {
	expression string
	location   *time.Location
	logger     *slog.Logger

	runner *cron.Cron
}

var _ ports.Scheduler = (*Cron)(nil)

func New(cfg config.SchedulerConfig, logger *slog.Logger) (*Cron, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Cron{
		expression: cfg.CronExpression,
		location:   loc,
		logger:     logger,
	}, nil
}

// Start registers the job and runs the schedule until ctx is cancelled.
func (c *Cron) Start(ctx context.Context, job func(now time.Time)) error {
	c.runner = cron.New(cron.WithLocation(c.location))

	id, err := c.runner.AddFunc(c.expression, func() {
		job(time.Now().In(c.location))
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", c.expression, err)
	}

	c.runner.Start()
	c.logger.Info("scheduler started",
		"expression", c.expression,
		"timezone", c.location.String(),
		"next", c.runner.Entry(id).Next,
	)

	<-ctx.Done()
	return ctx.Err()
}

// Stop halts the schedule and waits for a running job to finish, or for ctx.
func (c *Cron) Stop(ctx context.Context) error {
	if c.runner == nil {
		return nil
	}

	stopCtx := c.runner.Stop()
	select {
	case <-stopCtx.Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
