package protect

import "strings"

// TruncationMarker is appended to truncated responses.
const TruncationMarker = "... [response truncated for safety]"

// Truncate caps content at maxLength, cutting at the last sentence or
// newline boundary before the cap and falling back to 90% of the cap.
func Truncate(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = MaxResponseLength
	}
	if len(content) <= maxLength {
		return content
	}

	truncated := content[:maxLength]
	lastSentence := strings.LastIndex(truncated, ".")
	lastNewline := strings.LastIndex(truncated, "\n")

	cut := maxLength * 9 / 10
	if lastSentence > 0 && lastSentence+1 > cut {
		cut = lastSentence + 1
	}
	if lastNewline > 0 && lastNewline > cut {
		cut = lastNewline
	}

	return strings.TrimSpace(content[:cut]) + TruncationMarker
}
