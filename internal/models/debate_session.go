package models

import "time"

// DebateSession is the advisory lock for a running debate loop. At most one
// active session may exist per chat; stale sessions (old heartbeat) are
// expired and reclaimed on the next acquire.
type DebateSession struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ChatID         string `gorm:"size:32;not null;index"`
	Status         string `gorm:"size:16;not null"` // "active", "completed", "expired", "failed"
	TurnsCompleted int
	StartedAt      time.Time
	LastHeartbeat  time.Time
	CompletedAt    *time.Time
}
