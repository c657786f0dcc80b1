package debate

import (
	"fmt"
	"time"

	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/gorm"
)

// DefaultHeartbeatTimeout is the duration after which a session's
// heartbeat is considered stale and the lock can be reclaimed.
const DefaultHeartbeatTimeout = 90 * time.Second

// AcquireLock attempts to acquire the chat's debate lock. Stale active
// sessions (heartbeat older than timeout) are expired first; if an active
// session still exists, ErrAlreadyRunning is returned. On success a new
// active DebateSession row is created.
func AcquireLock(db *gorm.DB, chatID string, timeout time.Duration) (*models.DebateSession, error) {
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}

	var session *models.DebateSession

	err := db.Transaction(func(tx *gorm.DB) error {
		cutoff := time.Now().Add(-timeout)

		if err := tx.Model(&models.DebateSession{}).
			Where("status = ? AND last_heartbeat < ? AND chat_id = ?", "active", cutoff, chatID).
			Updates(map[string]interface{}{
				"status":       "expired",
				"completed_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("expire stale sessions: %w", err)
		}

		var existing models.DebateSession
		result := tx.Where("status = ? AND chat_id = ?", "active", chatID).First(&existing)
		if result.Error == nil {
			return ErrAlreadyRunning
		}
		if result.Error != gorm.ErrRecordNotFound {
			return fmt.Errorf("check existing session: %w", result.Error)
		}

		now := time.Now()
		session = &models.DebateSession{
			ChatID:        chatID,
			Status:        "active",
			StartedAt:     now,
			LastHeartbeat: now,
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err == ErrAlreadyRunning {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("debate: acquire lock: %w", err)
	}
	return session, nil
}

// Heartbeat refreshes the session's liveness timestamp and records turn
// progress.
func Heartbeat(db *gorm.DB, sessionID uint, turnsCompleted int) error {
	result := db.Model(&models.DebateSession{}).
		Where("id = ? AND status = ?", sessionID, "active").
		Updates(map[string]interface{}{
			"last_heartbeat":  time.Now(),
			"turns_completed": turnsCompleted,
		})
	if result.Error != nil {
		return fmt.Errorf("debate: heartbeat session %d: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("debate: session %d is no longer active", sessionID)
	}
	return nil
}

// ReleaseLock finalizes the session with the given terminal status
// ("completed" or "failed").
func ReleaseLock(db *gorm.DB, sessionID uint, status string, turnsCompleted int) error {
	now := time.Now()
	result := db.Model(&models.DebateSession{}).
		Where("id = ? AND status = ?", sessionID, "active").
		Updates(map[string]interface{}{
			"status":          status,
			"turns_completed": turnsCompleted,
			"completed_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("debate: release session %d: %w", sessionID, result.Error)
	}
	return nil
}
