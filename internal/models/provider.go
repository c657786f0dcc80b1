package models

import "time"

// Provider is a configured LLM endpoint. Many personas may share one
// provider. APIKey is stored encrypted (vault format); orchestration only
// decrypts it for the lifetime of a model call.
type Provider struct {
	ID          string `gorm:"primaryKey;size:32"`
	Kind        string `gorm:"size:32;not null"` // "openai", "anthropic", ...
	Name        string `gorm:"size:128"`
	APIURL      string `gorm:"size:512"`
	APIKey      string `gorm:"size:1024"`
	Model       string `gorm:"size:128"`
	Temperature float64
	IsDefault   bool `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
