package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/gorm"
)

// messageEvent holds data for a message SSE event.
type messageEvent struct {
	ID          uint   `json:"id"`
	Role        string `json:"role"`
	PersonaName string `json:"persona_name,omitempty"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

// handleSSE streams new messages of a chat as SSE events, polling the
// message log.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("id")

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"chat_id": chatID})
		c.Writer.Flush()

		// If no DB, just send connected and return. Tests use nil DB.
		if db == nil {
			return
		}

		// Only stream messages newer than the connection.
		var lastSeenID uint
		var latest models.Message
		if err := db.Where("chat_id = ?", chatID).
			Order("id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(2 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var newMsgs []models.Message
				db.Where("chat_id = ? AND id > ?", chatID, lastSeenID).
					Order("id ASC").
					Find(&newMsgs)

				if len(newMsgs) == 0 {
					continue
				}
				lastSeenID = newMsgs[len(newMsgs)-1].ID

				for _, m := range newMsgs {
					writeSSE(c.Writer, "message", messageEvent{
						ID:          m.ID,
						Role:        m.Role,
						PersonaName: m.PersonaName,
						Content:     m.Content,
						CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
