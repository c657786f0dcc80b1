package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/colloquy/internal/models"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler periodically sweeps auto-mode chats and drives a session for
// each one that is not already being driven. One sweep runs at a time.
type Scheduler struct {
	orch *Orchestrator
	expr string
}

// NewScheduler builds a Scheduler on the orchestrator's configured cron
// expression.
func NewScheduler(orch *Orchestrator) (*Scheduler, error) {
	expr := orch.cfg.AutoCron
	if expr == "" {
		expr = "*/5 * * * *"
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("debate: invalid auto_cron %q: %w", expr, err)
	}
	return &Scheduler{orch: orch, expr: expr}, nil
}

// Run blocks, sweeping on the cron schedule until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	sched, _ := cronParser.Parse(s.expr)
	log.Printf("[debate] auto-continue scheduler running (%s)", s.expr)

	for {
		next := sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
		s.Sweep(ctx)
	}
}

// Sweep drives one session for every auto-mode chat whose lock is free.
// Held locks are skipped silently; other errors are logged and do not
// stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	var chats []models.Chat
	if err := s.orch.db.Where("is_auto_mode = ?", true).Find(&chats).Error; err != nil {
		log.Printf("[debate] sweep: list auto-mode chats: %v", err)
		return
	}

	for _, c := range chats {
		select {
		case <-ctx.Done():
			return
		default:
		}

		report, err := s.orch.RunSession(ctx, RunOpts{ChatID: c.ID, RequireAutoMode: true})
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			continue
		case err != nil:
			turns := 0
			if report != nil {
				turns = report.TurnsCompleted
			}
			log.Printf("[debate] sweep: chat %s session failed after %d turns: %v", c.ID, turns, err)
		default:
			log.Printf("[debate] sweep: chat %s completed %d turns (%s)", c.ID, report.TurnsCompleted, report.Stopped)
		}
	}
}
