package debate

import (
	"context"
	"errors"
	"testing"

	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
)

func TestRunSession_StopsAtCeiling(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 4})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.TurnsCompleted != 4 {
		t.Errorf("TurnsCompleted = %d, want 4", report.TurnsCompleted)
	}
	if report.Stopped != "ceiling" {
		t.Errorf("Stopped = %q, want ceiling", report.Stopped)
	}

	msgs, _ := chat.RecentMessages(f.db, f.chatID, 10)
	if len(msgs) != 4 {
		t.Errorf("committed messages = %d, want 4", len(msgs))
	}

	// Speakers alternated.
	if msgs[0].PersonaName == msgs[1].PersonaName {
		t.Errorf("no alternation: %s then %s", msgs[0].PersonaName, msgs[1].PersonaName)
	}

	// Lock released as completed.
	var session models.DebateSession
	f.db.First(&session, report.SessionID)
	if session.Status != "completed" {
		t.Errorf("session status = %q, want completed", session.Status)
	}
}

func TestRunSession_AutoDefaultsToConfiguredAutoTurns(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)
	f.orch.cfg.AutoTurns = 3
	chat.SetAutoMode(f.db, f.chatID, true)

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, RequireAutoMode: true})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.TurnsCompleted != 3 {
		t.Errorf("TurnsCompleted = %d, want 3", report.TurnsCompleted)
	}
}

func TestRunSession_ManualDefaultsToOneRound(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 3, client)

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	// One turn per participant.
	if report.TurnsCompleted != 3 {
		t.Errorf("TurnsCompleted = %d, want 3", report.TurnsCompleted)
	}
}

func TestRunSession_ClampsToHardLimit(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)
	f.orch.cfg.HardTurnLimit = 3

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 10})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.TurnsCompleted != 3 {
		t.Errorf("TurnsCompleted = %d, want hard-limit 3", report.TurnsCompleted)
	}
}

// hookClient runs a callback after every model call.
type hookClient struct {
	inner *fakeClient
	after func(calls int)
}

func (h *hookClient) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	resp, err := h.inner.Chat(ctx, messages)
	h.after(h.inner.callCount())
	return resp, err
}

func TestRunSession_StopsWhenAutoModeDisabled(t *testing.T) {
	inner := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, inner)
	chat.SetAutoMode(f.db, f.chatID, true)

	// A human flips auto mode off while the second turn is in flight.
	client := &hookClient{inner: inner, after: func(calls int) {
		if calls == 2 {
			chat.SetAutoMode(f.db, f.chatID, false)
		}
	}}
	f.orch.newClient = func(cfg llm.Config) (llm.Client, error) { return client, nil }

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 5, RequireAutoMode: true})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.TurnsCompleted != 2 {
		t.Errorf("TurnsCompleted = %d, want 2", report.TurnsCompleted)
	}
	if report.Stopped != "auto-mode-off" {
		t.Errorf("Stopped = %q, want auto-mode-off", report.Stopped)
	}
}

func TestRunSession_NoParticipantsEndsCleanly(t *testing.T) {
	client := &fakeClient{responses: []string{"x"}}
	f := newFixture(t, 0, client)

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 5})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.Stopped != "no-speakers" {
		t.Errorf("Stopped = %q, want no-speakers", report.Stopped)
	}
	if report.TurnsCompleted != 0 {
		t.Errorf("TurnsCompleted = %d, want 0", report.TurnsCompleted)
	}
	if client.callCount() != 0 {
		t.Errorf("model calls = %d, want 0", client.callCount())
	}

	var session models.DebateSession
	f.db.First(&session, report.SessionID)
	if session.Status != "completed" {
		t.Errorf("session status = %q, want completed", session.Status)
	}
}

func TestRunSession_LockContention(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)

	if _, err := AcquireLock(f.db, f.chatID, DefaultHeartbeatTimeout); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	_, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 2})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("RunSession = %v, want ErrAlreadyRunning", err)
	}
}

func TestRunSession_FailsFastOnRateLimit(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)
	f.orch.cfg.DailyLimit = 2

	report, err := f.orch.RunSession(context.Background(), RunOpts{ChatID: f.chatID, MaxTurns: 10})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("RunSession = %v, want RateLimitError", err)
	}
	if report.TurnsCompleted != 2 {
		t.Errorf("TurnsCompleted = %d, want 2", report.TurnsCompleted)
	}

	var session models.DebateSession
	f.db.First(&session, report.SessionID)
	if session.Status != "failed" {
		t.Errorf("session status = %q, want failed", session.Status)
	}
}

func TestRunSession_CancelledContext(t *testing.T) {
	client := &fakeClient{responses: []string{"A perfectly reasonable contribution to the debate."}}
	f := newFixture(t, 2, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.orch.RunSession(ctx, RunOpts{ChatID: f.chatID, MaxTurns: 5})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if report.Stopped != "cancelled" {
		t.Errorf("Stopped = %q, want cancelled", report.Stopped)
	}
	if report.TurnsCompleted != 0 {
		t.Errorf("TurnsCompleted = %d, want 0", report.TurnsCompleted)
	}
}
