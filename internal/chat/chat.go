// Package chat provides persistence helpers for chats, participants, and
// the append-only message log that orchestration reads and writes.
package chat

import (
	"fmt"
	"time"

	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/gorm"
)

// DefaultContextWindow is how many recent turns feed a model call.
const DefaultContextWindow = 15

// GenerateID creates a unique chat ID in ch-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	return models.GenerateID("ch")
}

// CreateOpts holds options for creating a chat.
type CreateOpts struct {
	Title       string
	Topic       string
	IsAutoMode  bool
	CreatorName string
}

// Create creates a new chat with an auto-generated ID.
func Create(db *gorm.DB, opts CreateOpts) (*models.Chat, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("chat: title is required")
	}
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	c := &models.Chat{
		ID:          id,
		Title:       opts.Title,
		Topic:       opts.Topic,
		IsAutoMode:  opts.IsAutoMode,
		CreatorName: opts.CreatorName,
	}
	if err := db.Create(c).Error; err != nil {
		return nil, fmt.Errorf("chat: create: %w", err)
	}
	return c, nil
}

// Get loads a chat by ID.
func Get(db *gorm.DB, chatID string) (*models.Chat, error) {
	var c models.Chat
	if err := db.Where("id = ?", chatID).First(&c).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("chat: %s not found", chatID)
		}
		return nil, fmt.Errorf("chat: load %s: %w", chatID, err)
	}
	return &c, nil
}

// Participants returns the chat's personas in join order. Join order is
// stable, which round robin relies on.
func Participants(db *gorm.DB, chatID string) ([]models.Persona, error) {
	var links []models.ChatParticipant
	if err := db.Where("chat_id = ?", chatID).Order("created_at, persona_id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("chat: participants %s: %w", chatID, err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.PersonaID
	}
	var personas []models.Persona
	if err := db.Where("id IN ?", ids).Find(&personas).Error; err != nil {
		return nil, fmt.Errorf("chat: load personas: %w", err)
	}

	byID := make(map[string]models.Persona, len(personas))
	for _, p := range personas {
		byID[p.ID] = p
	}
	ordered := make([]models.Persona, 0, len(links))
	for _, l := range links {
		if p, ok := byID[l.PersonaID]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// AddParticipants links personas into a chat, skipping ones already present.
func AddParticipants(db *gorm.DB, chatID string, personaIDs []string) (added, skipped int, err error) {
	for _, pid := range personaIDs {
		link := models.ChatParticipant{ChatID: chatID, PersonaID: pid, CreatedAt: time.Now()}
		if err := db.Create(&link).Error; err != nil {
			skipped++
			continue
		}
		added++
	}
	return added, skipped, nil
}

// RemoveParticipants unlinks personas from a chat, returning the number
// removed.
func RemoveParticipants(db *gorm.DB, chatID string, personaIDs []string) (int64, error) {
	result := db.Where("chat_id = ? AND persona_id IN ?", chatID, personaIDs).
		Delete(&models.ChatParticipant{})
	if result.Error != nil {
		return 0, fmt.Errorf("chat: remove participants %s: %w", chatID, result.Error)
	}
	return result.RowsAffected, nil
}

// RecentMessages returns the last n messages of a chat, oldest first.
func RecentMessages(db *gorm.DB, chatID string, n int) ([]models.Message, error) {
	if n <= 0 {
		n = DefaultContextWindow
	}
	var msgs []models.Message
	if err := db.Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").Limit(n).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: recent messages %s: %w", chatID, err)
	}
	// Reverse to oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Append commits a message to the chat log and bumps the chat's UpdatedAt.
func Append(db *gorm.DB, msg *models.Message) error {
	if msg.ChatID == "" {
		return fmt.Errorf("chat: message chatID is required")
	}
	if msg.Role == "" {
		return fmt.Errorf("chat: message role is required")
	}
	if err := db.Create(msg).Error; err != nil {
		return fmt.Errorf("chat: append message: %w", err)
	}
	db.Model(&models.Chat{}).Where("id = ?", msg.ChatID).
		Update("updated_at", time.Now())
	return nil
}

// SetLastSpeaker round-trip persists the last speaker so round robin
// resumes across orchestration calls.
func SetLastSpeaker(db *gorm.DB, chatID, personaID string) error {
	result := db.Model(&models.Chat{}).Where("id = ?", chatID).
		Updates(map[string]interface{}{"last_speaker_id": personaID, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("chat: set last speaker %s: %w", chatID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: %s not found", chatID)
	}
	return nil
}

// SetAutoMode flips the chat's autonomous-debate flag.
func SetAutoMode(db *gorm.DB, chatID string, on bool) error {
	result := db.Model(&models.Chat{}).Where("id = ?", chatID).
		Updates(map[string]interface{}{"is_auto_mode": on, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("chat: set auto mode %s: %w", chatID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: %s not found", chatID)
	}
	return nil
}

// UserDisplayName returns the human participant's display name, falling
// back to "Moderator".
func UserDisplayName(c *models.Chat) string {
	if c != nil && c.CreatorName != "" {
		return c.CreatorName
	}
	return "Moderator"
}
