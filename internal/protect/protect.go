// Package protect guards model calls and model output: input sanitization,
// loop and refusal detection, response cleaning, truncation, and
// repetition checks against recent history. Everything here is a pure
// function over strings so the pipeline is testable in isolation.
package protect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Protection limits.
const (
	// MaxResponseLength caps committed turn content.
	MaxResponseLength = 2000
	// MaxInputLength caps user-submitted message content.
	MaxInputLength = 4000
)

// Validation failures for a cleaned model response. These drive the
// in-turn retry; they are never surfaced to callers of the executor.
var (
	ErrEmpty   = errors.New("protect: response empty after cleaning")
	ErrLoop    = errors.New("protect: degenerate repeated output")
	ErrRefusal = errors.New("protect: response breaks character")
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x{200B}\x{FEFF}]`)
	manyNewlines = regexp.MustCompile(`\n{5,}`)

	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(previous|above|prior)\s+(instruction|command|directive)`),
		regexp.MustCompile(`(?i)system\s*prompt`),
		regexp.MustCompile(`(?i)you\s+are\s+(now|a|an?)\s*(ai|assistant|bot)`),
		regexp.MustCompile(`(?i)jailbreak`),
		regexp.MustCompile(`(?i)roleplay.*break`),
		regexp.MustCompile(`(?i)pretend\s+to\s+be`),
		regexp.MustCompile(`(?i)override`),
	}
)

// SanitizeInput strips control characters, masks prompt-injection patterns,
// and collapses excessive newlines in user-submitted content.
func SanitizeInput(content string) string {
	s := controlChars.ReplaceAllString(content, "")
	for _, p := range injectionPatterns {
		s = p.ReplaceAllString(s, "[filtered]")
	}
	s = manyNewlines.ReplaceAllString(s, "\n\n\n")
	return strings.TrimSpace(s)
}

// ValidateInput checks user-submitted message content.
func ValidateInput(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("protect: message cannot be empty")
	}
	if len(trimmed) > MaxInputLength {
		return fmt.Errorf("protect: message too long (max %d characters)", MaxInputLength)
	}
	return nil
}

// ValidateResponse decides whether a cleaned model response may be
// committed as a turn. Returns nil when the response is acceptable.
func ValidateResponse(cleaned string) error {
	if strings.TrimSpace(cleaned) == "" {
		return ErrEmpty
	}
	if DetectLoop(cleaned) {
		return ErrLoop
	}
	if DetectRefusal(cleaned) {
		return ErrRefusal
	}
	return nil
}
