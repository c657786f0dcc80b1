package protect

import (
	"regexp"
	"strings"
)

var (
	toolCallBlocks = regexp.MustCompile(`(?s)<(tool_call|thinking|function_call|scratchpad)>.*?</(tool_call|thinking|function_call|scratchpad)>`)
	xmlTags        = regexp.MustCompile(`</?[A-Za-z_][A-Za-z0-9_]*\s*/?>`)
	leakMarkers    = regexp.MustCompile(`(?i)\[\s*(system|assistant|user|inst|/inst|response|end of response)\s*\]`)
	rolePrefix     = regexp.MustCompile(`(?i)^(assistant|system|response|answer)\s*:\s*`)
)

// CleanResponse strips generation artifacts from a raw model response:
// tool-call/XML fragments, bracketed system-leak markers, wrapping quotes,
// a leading "Name:" echo of the speaker or a generic role label, and the
// doubled-response defect where the model emits its answer twice.
// CleanResponse is idempotent.
func CleanResponse(content, speakerName string) string {
	s := strings.TrimSpace(content)

	s = toolCallBlocks.ReplaceAllString(s, "")
	s = xmlTags.ReplaceAllString(s, "")
	s = leakMarkers.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	s = stripWrappingQuotes(s)
	s = stripNamePrefix(s, speakerName)
	s = stripWrappingQuotes(s)
	s = collapseDoubled(s)

	return strings.TrimSpace(s)
}

// stripWrappingQuotes removes quote characters that wrap the entire
// response, repeating until no wrapping pair remains.
func stripWrappingQuotes(s string) string {
	pairs := [][2]string{{`"`, `"`}, {"“", "”"}}
	for {
		stripped := false
		for _, p := range pairs {
			if len(s) > len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
				s = strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

// stripNamePrefix removes accidental "Name:" prefixes where Name is the
// speaking persona or a generic role label. Models echo these from the
// tagged conversation window.
func stripNamePrefix(s, speakerName string) string {
	for {
		trimmed := rolePrefix.ReplaceAllString(s, "")
		if speakerName != "" {
			lower := strings.ToLower(trimmed)
			prefix := strings.ToLower(speakerName) + ":"
			if strings.HasPrefix(lower, prefix) {
				trimmed = strings.TrimSpace(trimmed[len(prefix):])
			}
		}
		if trimmed == s {
			return s
		}
		s = strings.TrimSpace(trimmed)
	}
}

// collapseDoubled detects the doubled-response defect: the same content
// repeated across the first and second half of the text. Detection allows
// a few characters of slack around the midpoint.
func collapseDoubled(s string) string {
	if len(s) < 100 {
		return s
	}
	mid := len(s) / 2
	for offset := -2; offset <= 2; offset++ {
		cut := mid + offset
		if cut <= 0 || cut >= len(s) {
			continue
		}
		first := strings.TrimSpace(s[:cut])
		second := strings.TrimSpace(s[cut:])
		if len(first) > 40 && first == second {
			return first
		}
	}
	return s
}
