package models

import "time"

// RateWindow is a per-provider, per-UTC-day request counter. Key is
// "<providerID>:<YYYY-MM-DD>". Rows are persisted so quotas survive
// process restarts.
type RateWindow struct {
	Key       string `gorm:"primaryKey;size:64;column:window_key"`
	Requests  int    `gorm:"not null"`
	Limit     int    `gorm:"column:request_limit;not null"`
	ResetAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
