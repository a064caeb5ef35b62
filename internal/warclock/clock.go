// Package warclock periodically reports SCHEDULED wars whose start time has
// passed. Starting a war stays an administrator decision; the clock only
// surfaces the ones that are due.
package warclock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"statecraft/internal/wars/models"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule checks once a minute, at second zero
const DefaultSchedule = "0 * * * * *"

// DueWarLister lists wars that should have started by at
type DueWarLister interface {
	ListDueWars(ctx context.Context, at time.Time) ([]models.War, error)
}

// DueFunc receives each overdue war found by a check
type DueFunc func(ctx context.Context, war models.War, overdue time.Duration)

// Clock runs the due-war check on a cron schedule
type Clock struct {
	wars     DueWarLister
	onDue    DueFunc
	schedule string
	timeout  time.Duration
	now      func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// parser accepts the 6-field format with seconds
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New validates schedule and builds a stopped clock. onDue may be nil.
func New(wars DueWarLister, schedule string, onDue DueFunc) (*Clock, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return &Clock{
		wars:     wars,
		onDue:    onDue,
		schedule: schedule,
		timeout:  30 * time.Second,
		now:      time.Now,
		cron:     cron.New(cron.WithParser(parser)),
	}, nil
}

// Start registers the check and starts the cron scheduler. Checks run with
// a context derived from ctx.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	_, err := c.cron.AddFunc(c.schedule, func() {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if _, err := c.Check(checkCtx); err != nil {
			slog.ErrorContext(checkCtx, "Due war check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add due war check: %w", err)
	}

	c.cron.Start()
	c.running = true
	slog.InfoContext(ctx, "War clock started", "schedule", c.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running check to finish
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	<-c.cron.Stop().Done()
	c.running = false
	slog.Info("War clock stopped")
}

// Check runs one pass and returns the overdue wars
func (c *Clock) Check(ctx context.Context) ([]models.War, error) {
	now := c.now()
	due, err := c.wars.ListDueWars(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, war := range due {
		overdue := now.Sub(time.UnixMilli(*war.ScheduledFor))
		slog.WarnContext(ctx, "War is due to start",
			"war_id", war.UUID,
			"name", war.Name,
			"overdue", overdue.Round(time.Second).String())
		if c.onDue != nil {
			c.onDue(ctx, war, overdue)
		}
	}
	return due, nil
}
