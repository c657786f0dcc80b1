package models

import "time"

// Message roles.
const (
	RoleUser    = "user"
	RolePersona = "persona"
	RoleSystem  = "system"
)

// Message is one committed turn in a chat. Append-only; CreatedAt ordering
// is the sole sequencing mechanism.
type Message struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ChatID      string `gorm:"size:32;not null;index"`
	Role        string `gorm:"size:16;not null"`
	Content     string `gorm:"type:text"`
	PersonaID   string `gorm:"size:32"`
	PersonaName string `gorm:"size:128"`
	CreatedAt   time.Time `gorm:"index"`
}
