package models

import "time"

// Chat is a debate room: a topic, a participant set, and an auto-mode flag.
// LastSpeakerID is round-trip persisted so round robin resumes across calls.
type Chat struct {
	ID            string `gorm:"primaryKey;size:32"`
	Title         string `gorm:"size:256"`
	Topic         string `gorm:"size:512"`
	IsAutoMode    bool
	LastSpeakerID string `gorm:"size:32"`
	CreatorName   string `gorm:"size:128"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChatParticipant links a persona into a chat.
type ChatParticipant struct {
	ChatID    string `gorm:"primaryKey;size:32"`
	PersonaID string `gorm:"primaryKey;size:32"`
	CreatedAt time.Time
}
