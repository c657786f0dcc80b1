package debate

import (
	"fmt"
	"strings"

	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
)

// ContextWindow is how many recent turns a persona sees per call.
const ContextWindow = 15

// BuildPersonaPrompt assembles the system prompt for a persona speaking in
// a chat: identity, personality, topic, the other participants, and the
// behavioral contract that keeps responses in-character and conversational.
func BuildPersonaPrompt(p *models.Persona, c *models.Chat, participants []models.Persona, humanName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.", p.Name)
	if p.Bio != "" {
		fmt.Fprintf(&b, " %s", p.Bio)
	}
	b.WriteString("\n\n")

	if p.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n\n", p.Personality)
	}

	if c.Topic != "" {
		fmt.Fprintf(&b, "You are participating in a discussion about: %s\n\n", c.Topic)
	} else {
		fmt.Fprintf(&b, "You are participating in a discussion titled %q.\n\n", c.Title)
	}

	var others []string
	for _, other := range participants {
		if other.ID != p.ID {
			others = append(others, other.Name)
		}
	}
	if len(others) > 0 {
		fmt.Fprintf(&b, "The other participants are: %s.", strings.Join(others, ", "))
		fmt.Fprintf(&b, " The human moderator is %s.\n\n", humanName)
	} else {
		fmt.Fprintf(&b, "You are speaking with %s.\n\n", humanName)
	}

	b.WriteString("Rules:\n")
	b.WriteString("- Stay in character at all times. Never mention being an AI or a language model.\n")
	b.WriteString("- Respond as yourself only. Never write dialogue for other participants.\n")
	b.WriteString("- Keep responses conversational and under three paragraphs.\n")
	b.WriteString("- Do not prefix your response with your own name.\n")
	b.WriteString("- Engage directly with what was said before you.")

	return b.String()
}

// BuildConversationWindow maps the last turns of a chat into the wire
// conversation for a speaker: the speaker's own turns become assistant
// entries, everyone else's turns become user entries tagged with the
// speaker's name, so the model can tell voices apart. Every window ends
// with a system directive pinning the speaker to the most recent turn;
// a non-empty directive (the corrective retry text) is appended to it.
func BuildConversationWindow(speaker *models.Persona, c *models.Chat, history []models.Message, humanName, directive string) []llm.Message {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	if c.Topic != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: "Discussion topic: " + c.Topic})
	}

	for _, m := range history {
		if m.Role == models.RolePersona && m.PersonaID == speaker.ID {
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
			continue
		}
		name := m.PersonaName
		if m.Role == models.RoleUser {
			name = humanName
		}
		if name == "" {
			name = "System"
		}
		msgs = append(msgs, llm.Message{
			Role:        llm.RoleUser,
			Content:     fmt.Sprintf("%s: %s", name, m.Content),
			PersonaName: name,
		})
	}

	trailing := turnDirective(speaker, history, humanName)
	if directive != "" {
		trailing += " " + directive
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: trailing})
	return msgs
}

// turnDirective tells the speaker whose turn it is and what to react to.
func turnDirective(speaker *models.Persona, history []models.Message, humanName string) string {
	if len(history) == 0 {
		return fmt.Sprintf("It is your turn to speak as %s. Open the discussion.", speaker.Name)
	}
	last := history[len(history)-1]
	if last.Role == models.RolePersona && last.PersonaID == speaker.ID {
		return fmt.Sprintf("It is your turn to speak as %s. Continue the discussion.", speaker.Name)
	}
	name := last.PersonaName
	if last.Role == models.RoleUser {
		name = humanName
	}
	if name == "" {
		name = "the moderator"
	}
	return fmt.Sprintf("It is your turn to speak as %s. React to the most recent message from %s.",
		speaker.Name, name)
}
