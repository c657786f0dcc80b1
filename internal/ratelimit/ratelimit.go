// Package ratelimit enforces a per-provider daily request quota. Counters
// are database rows keyed by provider ID and UTC calendar day, so quotas
// survive process restarts and are shared by all debate sessions.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/gorm"
)

// DefaultDailyLimit is the per-provider request quota per UTC day.
const DefaultDailyLimit = 100

// Result reports the outcome of a quota check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// windowKey builds the counter key for a provider on a given day.
func windowKey(providerID string, day time.Time) string {
	return providerID + ":" + day.UTC().Format("2006-01-02")
}

// dayBounds returns the start of the current UTC day and the next UTC
// midnight.
func dayBounds(now time.Time) (time.Time, time.Time) {
	utc := now.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// Check increments and checks the provider's quota with the default limit.
func Check(db *gorm.DB, providerID string) (*Result, error) {
	return CheckN(db, providerID, DefaultDailyLimit)
}

// CheckN atomically increments-and-compares the provider's daily counter.
// The first call of a day creates the counter at 1. Once the limit is
// reached, further calls are rejected without incrementing and report the
// fixed reset time (next UTC midnight).
func CheckN(db *gorm.DB, providerID string, limit int) (*Result, error) {
	if providerID == "" {
		return nil, fmt.Errorf("ratelimit: providerID is required")
	}
	if limit <= 0 {
		limit = DefaultDailyLimit
	}

	today, resetAt := dayBounds(time.Now())
	key := windowKey(providerID, today)

	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		var window models.RateWindow
		result := tx.Where("window_key = ?", key).First(&window)
		if result.Error == gorm.ErrRecordNotFound {
			window = models.RateWindow{
				Key:      key,
				Requests: 1,
				Limit:    limit,
				ResetAt:  resetAt,
			}
			if err := tx.Create(&window).Error; err != nil {
				return fmt.Errorf("create window: %w", err)
			}
			res = Result{Allowed: true, Remaining: limit - 1, Limit: limit, ResetAt: resetAt}
			return nil
		}
		if result.Error != nil {
			return fmt.Errorf("load window: %w", result.Error)
		}

		if window.Requests >= window.Limit {
			res = Result{Allowed: false, Remaining: 0, Limit: window.Limit, ResetAt: window.ResetAt}
			return nil
		}

		if err := tx.Model(&models.RateWindow{}).Where("window_key = ?", key).
			Update("requests", gorm.Expr("requests + 1")).Error; err != nil {
			return fmt.Errorf("increment window: %w", err)
		}
		res = Result{
			Allowed:   true,
			Remaining: window.Limit - window.Requests - 1,
			Limit:     window.Limit,
			ResetAt:   window.ResetAt,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: check %s: %w", providerID, err)
	}
	return &res, nil
}

// Usage reports the provider's consumption for the current UTC day without
// incrementing.
func Usage(db *gorm.DB, providerID string) (*Result, error) {
	if providerID == "" {
		return nil, fmt.Errorf("ratelimit: providerID is required")
	}

	today, resetAt := dayBounds(time.Now())
	key := windowKey(providerID, today)

	var window models.RateWindow
	err := db.Where("window_key = ?", key).First(&window).Error
	if err == gorm.ErrRecordNotFound {
		return &Result{Allowed: true, Remaining: DefaultDailyLimit, Limit: DefaultDailyLimit, ResetAt: resetAt}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ratelimit: usage %s: %w", providerID, err)
	}

	remaining := window.Limit - window.Requests
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   window.Requests < window.Limit,
		Remaining: remaining,
		Limit:     window.Limit,
		ResetAt:   window.ResetAt,
	}, nil
}

// SetLimit overrides the provider's limit for the current day.
func SetLimit(db *gorm.DB, providerID string, limit int) error {
	if providerID == "" {
		return fmt.Errorf("ratelimit: providerID is required")
	}
	if limit <= 0 {
		return fmt.Errorf("ratelimit: limit must be positive")
	}

	today, resetAt := dayBounds(time.Now())
	key := windowKey(providerID, today)

	var window models.RateWindow
	err := db.Where("window_key = ?", key).First(&window).Error
	if err == gorm.ErrRecordNotFound {
		window = models.RateWindow{Key: key, Requests: 0, Limit: limit, ResetAt: resetAt}
		if err := db.Create(&window).Error; err != nil {
			return fmt.Errorf("ratelimit: set limit %s: %w", providerID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("ratelimit: set limit %s: %w", providerID, err)
	}

	if err := db.Model(&models.RateWindow{}).Where("window_key = ?", key).
		Update("request_limit", limit).Error; err != nil {
		return fmt.Errorf("ratelimit: set limit %s: %w", providerID, err)
	}
	return nil
}

// ResetToday deletes the provider's counter for the current day
// (operator action).
func ResetToday(db *gorm.DB, providerID string) error {
	if providerID == "" {
		return fmt.Errorf("ratelimit: providerID is required")
	}
	today, _ := dayBounds(time.Now())
	key := windowKey(providerID, today)
	if err := db.Where("window_key = ?", key).Delete(&models.RateWindow{}).Error; err != nil {
		return fmt.Errorf("ratelimit: reset %s: %w", providerID, err)
	}
	return nil
}
