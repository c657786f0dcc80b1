package models

import "time"

// Persona is a synthetic debate participant: a name and background backed
// by a model endpoint. Personas are shared across chats.
type Persona struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:128;not null"`
	Bio         string `gorm:"type:text"`
	Personality string `gorm:"type:text"`
	Model       string `gorm:"size:128"` // overrides the provider's model when set
	Temperature *float64
	ProviderID  string `gorm:"size:32;index"` // empty = use the default provider
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
