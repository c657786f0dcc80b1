package debate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/ratelimit"
)

// selectorTimeout bounds the model-assisted speaker choice. A slow or
// broken selector must never stall the debate; round robin is always
// available.
const selectorTimeout = 10 * time.Second

// SelectSpeaker picks the next persona to speak. Strategies run in order
// and the first that yields a persona wins:
//
//  1. An @mention of a participant in the most recent message.
//  2. Model-assisted choice, when enabled and more than two personas
//     participate. Any failure falls through silently.
//  3. Round robin over join order, starting after the last speaker.
//
// SelectSpeaker never returns an error for strategy failures. An empty
// participant set yields a nil persona: no eligible speaker, not a fault.
func (o *Orchestrator) SelectSpeaker(ctx context.Context, c *models.Chat, participants []models.Persona, history []models.Message) (*models.Persona, error) {
	if len(participants) == 0 {
		return nil, nil
	}
	if len(participants) == 1 {
		return &participants[0], nil
	}

	if p := pickByMention(participants, history); p != nil {
		return p, nil
	}

	if o.cfg.ModelSelector && c.IsAutoMode && len(participants) > 2 {
		if p := o.pickByModel(ctx, c, participants, history); p != nil {
			return p, nil
		}
	}

	return pickRoundRobin(c, participants), nil
}

// pickByMention returns the participant @mentioned in the newest message,
// unless they just spoke themselves.
func pickByMention(participants []models.Persona, history []models.Message) *models.Persona {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]
	id := chat.ResolveMention(last.Content, participants)
	if id == "" || id == last.PersonaID {
		return nil
	}
	for i := range participants {
		if participants[i].ID == id {
			return &participants[i]
		}
	}
	return nil
}

// pickRoundRobin returns the participant after the last speaker in join
// order, wrapping around. An unknown or empty last speaker starts from the
// beginning.
func pickRoundRobin(c *models.Chat, participants []models.Persona) *models.Persona {
	if c.LastSpeakerID == "" {
		return &participants[0]
	}
	for i := range participants {
		if participants[i].ID == c.LastSpeakerID {
			return &participants[(i+1)%len(participants)]
		}
	}
	return &participants[0]
}

// pickByModel asks the chat's default provider which persona should speak
// next, given the recent conversation. Returns nil on any failure so the
// caller falls through to round robin.
func (o *Orchestrator) pickByModel(ctx context.Context, c *models.Chat, participants []models.Persona, history []models.Message) *models.Persona {
	cfg, providerID, err := o.resolveDefaultClientConfig()
	if err != nil {
		return nil
	}
	if o.breaker.IsOpen(providerID) {
		return nil
	}
	// Selector calls count against the provider's daily quota too.
	if quota, err := ratelimit.Check(o.db, providerID); err != nil || !quota.Allowed {
		return nil
	}

	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}

	var recent strings.Builder
	start := len(history) - 5
	if start < 0 {
		start = 0
	}
	for _, m := range history[start:] {
		name := m.PersonaName
		if name == "" {
			name = "Moderator"
		}
		fmt.Fprintf(&recent, "%s: %s\n", name, clip(m.Content, 200))
	}

	prompt := fmt.Sprintf(
		"Given this conversation, which participant should naturally speak next? "+
			"Consider who was addressed, who has a stake in the last point, and who has been quiet.\n\n"+
			"Participants: %s\nLast speaker: %s\n\nConversation:\n%s\n"+
			"Reply with exactly one participant name and nothing else.",
		strings.Join(names, ", "), lastSpeakerName(c, participants), recent.String())

	client, err := o.newClient(cfg)
	if err != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, selectorTimeout)
	defer cancel()
	resp, err := client.Chat(callCtx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("[debate] speaker selector failed, using round robin: %v", err)
		return nil
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	for i := range participants {
		if strings.Contains(answer, strings.ToLower(participants[i].Name)) {
			if participants[i].ID == c.LastSpeakerID {
				return nil // no back-to-back turns
			}
			return &participants[i]
		}
	}
	return nil
}

func lastSpeakerName(c *models.Chat, participants []models.Persona) string {
	for _, p := range participants {
		if p.ID == c.LastSpeakerID {
			return p.Name
		}
	}
	return "(none)"
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
