package chat

import (
	"regexp"
	"strings"

	"github.com/zulandar/colloquy/internal/models"
)

var mentionPattern = regexp.MustCompile(`@(\w[\w-]*\w)`)

// ExtractMention returns the first @name token in content, or "".
func ExtractMention(content string) string {
	m := mentionPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

// ResolveMention matches an @name token against participants by name,
// case-insensitively. Returns the matched persona's ID or "".
func ResolveMention(content string, participants []models.Persona) string {
	mention := ExtractMention(content)
	if mention == "" {
		return ""
	}
	for _, p := range participants {
		if strings.EqualFold(p.Name, mention) {
			return p.ID
		}
	}
	return ""
}
