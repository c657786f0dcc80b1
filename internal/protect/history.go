package protect

import "strings"

const (
	// historyWindow is how many recent turns a new response is compared
	// against.
	historyWindow = 5
	// repetitionMinLength avoids false positives on short replies
	// ("I agree.", "Exactly!") that legitimately recur.
	repetitionMinLength = 40
)

// IsRepetitive reports whether content exactly matches, contains, or is
// contained by any of the last five committed turns. Only applied to
// content longer than repetitionMinLength.
func IsRepetitive(content string, history []string) bool {
	c := strings.TrimSpace(content)
	if len(c) <= repetitionMinLength {
		return false
	}
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, prev := range history[start:] {
		p := strings.TrimSpace(prev)
		if len(p) <= repetitionMinLength {
			continue
		}
		if c == p || strings.Contains(c, p) || strings.Contains(p, c) {
			return true
		}
	}
	return false
}
