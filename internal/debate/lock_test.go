package debate

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/colloquy/internal/models"
)

func TestAcquireLock_Success(t *testing.T) {
	db := testDB(t)

	session, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if session.ID == 0 {
		t.Fatal("expected session ID to be set")
	}
	if session.Status != "active" {
		t.Errorf("Status = %q, want active", session.Status)
	}
	if session.ChatID != "ch-1" {
		t.Errorf("ChatID = %q", session.ChatID)
	}
}

func TestAcquireLock_Contention(t *testing.T) {
	db := testDB(t)

	if _, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout); err != nil {
		t.Fatalf("first AcquireLock: %v", err)
	}
	_, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second AcquireLock = %v, want ErrAlreadyRunning", err)
	}
}

func TestAcquireLock_DifferentChatsDoNotContend(t *testing.T) {
	db := testDB(t)

	if _, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout); err != nil {
		t.Fatalf("AcquireLock ch-1: %v", err)
	}
	if _, err := AcquireLock(db, "ch-2", DefaultHeartbeatTimeout); err != nil {
		t.Errorf("AcquireLock ch-2: %v", err)
	}
}

func TestAcquireLock_ReclaimsStaleSession(t *testing.T) {
	db := testDB(t)

	stale, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	// Age the heartbeat past the timeout.
	db.Model(&models.DebateSession{}).Where("id = ?", stale.ID).
		Update("last_heartbeat", time.Now().Add(-2*DefaultHeartbeatTimeout))

	fresh, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)
	if err != nil {
		t.Fatalf("AcquireLock after stale: %v", err)
	}
	if fresh.ID == stale.ID {
		t.Error("expected a new session")
	}

	var old models.DebateSession
	db.First(&old, stale.ID)
	if old.Status != "expired" {
		t.Errorf("stale session status = %q, want expired", old.Status)
	}
}

func TestHeartbeat(t *testing.T) {
	db := testDB(t)
	session, _ := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)

	if err := Heartbeat(db, session.ID, 3); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	var got models.DebateSession
	db.First(&got, session.ID)
	if got.TurnsCompleted != 3 {
		t.Errorf("TurnsCompleted = %d, want 3", got.TurnsCompleted)
	}

	ReleaseLock(db, session.ID, "completed", 3)
	if err := Heartbeat(db, session.ID, 4); err == nil {
		t.Error("heartbeat on a released session should fail")
	}
}

func TestReleaseLock(t *testing.T) {
	db := testDB(t)
	session, _ := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout)

	if err := ReleaseLock(db, session.ID, "failed", 2); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	var got models.DebateSession
	db.First(&got, session.ID)
	if got.Status != "failed" || got.TurnsCompleted != 2 {
		t.Errorf("session = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	// Lock is free again.
	if _, err := AcquireLock(db, "ch-1", DefaultHeartbeatTimeout); err != nil {
		t.Errorf("AcquireLock after release: %v", err)
	}
}
