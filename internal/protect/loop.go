package protect

import "strings"

const (
	// sentenceRepeatMax is the number of identical sentence fragments
	// tolerated before content counts as a loop.
	sentenceRepeatMax = 3
	// chunkRepeatMax is the number of contiguous leading chunk repeats
	// tolerated before content counts as a loop.
	chunkRepeatMax = 4
)

// DetectLoop flags degenerate repeated output: either a sentence-level
// fragment occurring more than three times, or a short character sequence
// repeating contiguously from the start of the text.
func DetectLoop(content string) bool {
	sentences := splitSentences(content)
	counts := make(map[string]int, len(sentences))
	for _, s := range sentences {
		counts[s]++
		if counts[s] > sentenceRepeatMax {
			return true
		}
	}

	// Character-level repetition, e.g. "abcabcabcabcabc...".
	if len(content) > 50 {
		for chunkLen := 5; chunkLen <= 20; chunkLen++ {
			chunk := content[:chunkLen]
			matches := 0
			for i := 0; i+chunkLen <= len(content); i += chunkLen {
				if content[i:i+chunkLen] != chunk {
					break
				}
				matches++
			}
			if matches > chunkRepeatMax {
				return true
			}
		}
	}

	return false
}

// splitSentences breaks content on sentence terminators and newlines,
// keeping trimmed fragments longer than 10 characters.
func splitSentences(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 10 {
			out = append(out, p)
		}
	}
	return out
}
