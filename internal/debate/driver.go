package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/zulandar/colloquy/internal/chat"
)

// HardTurnLimit is the absolute per-session turn ceiling, regardless of
// configuration.
const HardTurnLimit = 50

// RunOpts controls a driven session.
type RunOpts struct {
	ChatID string
	// MaxTurns caps the session. Zero means one round (turn per
	// participant) for manual triggers, or the configured auto-turn
	// ceiling when RequireAutoMode is set.
	MaxTurns int
	// RequireAutoMode makes the loop re-check the chat's auto-mode flag
	// before every turn and stop cleanly when a human has turned it off.
	RequireAutoMode bool
}

// RunReport summarizes a finished session.
type RunReport struct {
	SessionID      uint
	TurnsCompleted int
	Stopped        string // "ceiling", "auto-mode-off", "no-speakers", "cancelled"
}

// RunSession drives an autonomous multi-turn debate under the chat's
// advisory lock. Turns are paced with a randomized delay; terminal errors
// (open breaker, exhausted quota, retry exhaustion) fail the session
// rather than spinning against a broken provider.
func (o *Orchestrator) RunSession(ctx context.Context, opts RunOpts) (*RunReport, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		if opts.RequireAutoMode {
			maxTurns = o.cfg.AutoTurns
		} else {
			// A manual trigger without an explicit ceiling runs one round.
			participants, err := chat.Participants(o.db, opts.ChatID)
			if err != nil {
				return nil, err
			}
			maxTurns = len(participants)
		}
	}
	if maxTurns <= 0 {
		maxTurns = o.cfg.AutoTurns
	}
	if ceiling := o.cfg.HardTurnLimit; ceiling > 0 && maxTurns > ceiling {
		maxTurns = ceiling
	}
	if maxTurns > HardTurnLimit {
		maxTurns = HardTurnLimit
	}

	session, err := AcquireLock(o.db, opts.ChatID, DefaultHeartbeatTimeout)
	if err != nil {
		return nil, err
	}

	report := &RunReport{SessionID: session.ID}
	status := "completed"
	defer func() {
		if err := ReleaseLock(o.db, session.ID, status, report.TurnsCompleted); err != nil {
			log.Printf("[debate] release lock for chat %s: %v", opts.ChatID, err)
		}
	}()

	log.Printf("[debate] session %d started for chat %s (max %d turns)", session.ID, opts.ChatID, maxTurns)

	for turn := 0; turn < maxTurns; turn++ {
		if turn > 0 {
			if err := o.pace(ctx); err != nil {
				report.Stopped = "cancelled"
				return report, nil
			}
		}
		select {
		case <-ctx.Done():
			report.Stopped = "cancelled"
			return report, nil
		default:
		}

		if opts.RequireAutoMode {
			c, err := chat.Get(o.db, opts.ChatID)
			if err != nil {
				status = "failed"
				return report, err
			}
			if !c.IsAutoMode {
				report.Stopped = "auto-mode-off"
				log.Printf("[debate] session %d stopping, auto mode disabled", session.ID)
				return report, nil
			}
		}

		result, err := o.ExecuteTurn(ctx, opts.ChatID)
		if err != nil {
			status = "failed"
			var rle *RateLimitError
			switch {
			case errors.As(err, &rle), errors.Is(err, ErrUnavailable), errors.Is(err, ErrExhaustedRetries), errors.Is(err, ErrNoProvider):
				log.Printf("[debate] session %d stopping: %v", session.ID, err)
				return report, err
			default:
				return report, fmt.Errorf("debate: session %d turn %d: %w", session.ID, turn+1, err)
			}
		}
		if result == nil {
			report.Stopped = "no-speakers"
			log.Printf("[debate] session %d stopping, chat has no eligible speaker", session.ID)
			return report, nil
		}

		report.TurnsCompleted++
		if err := Heartbeat(o.db, session.ID, report.TurnsCompleted); err != nil {
			// Lock was reclaimed by another process; stop rather than
			// double-drive the chat.
			status = "failed"
			return report, err
		}
		log.Printf("[debate] session %d turn %d: %s spoke (%d chars)",
			session.ID, report.TurnsCompleted, result.Persona.Name, len(result.Message.Content))
	}

	report.Stopped = "ceiling"
	return report, nil
}

// pace sleeps a randomized inter-turn delay, honoring cancellation.
func (o *Orchestrator) pace(ctx context.Context) error {
	min, max := o.cfg.PacingMin(), o.cfg.PacingMax()
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	delay := min
	if span := max - min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
