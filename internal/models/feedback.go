package models

import "time"

// Feedback is a user-submitted feedback record.
type Feedback struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128"`
	Email     string `gorm:"size:256"`
	Category  string `gorm:"size:32"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
