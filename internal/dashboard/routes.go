package dashboard

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/debate"
	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/protect"
	"github.com/zulandar/colloquy/internal/ratelimit"
	"github.com/zulandar/colloquy/internal/vault"
	"gorm.io/gorm"
)

// redactedKey replaces stored API keys in API responses.
const redactedKey = "(encrypted)"

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	db := opts.DB

	api := router.Group("/api")

	api.GET("/personas", handlePersonaList(db))
	api.POST("/personas", handlePersonaCreate(db))
	api.GET("/personas/:id", handlePersonaGet(db))
	api.PUT("/personas/:id", handlePersonaUpdate(db))
	api.DELETE("/personas/:id", handlePersonaDelete(db))

	api.GET("/providers", handleProviderList(db))
	api.POST("/providers", handleProviderCreate(db, opts.Vault))
	api.PUT("/providers/:id", handleProviderUpdate(db, opts.Vault))
	api.DELETE("/providers/:id", handleProviderDelete(db))
	api.GET("/providers/:id/usage", handleProviderUsage(db))

	api.GET("/chats", handleChatList(db))
	api.POST("/chats", handleChatCreate(db))
	api.GET("/chats/:id", handleChatDetail(db))
	api.POST("/chats/:id/participants", handleParticipantAdd(db))
	api.DELETE("/chats/:id/participants", handleParticipantRemove(db))
	api.POST("/chats/:id/auto", handleAutoMode(db))

	api.GET("/chats/:id/messages", handleMessageList(db))
	api.POST("/chats/:id/messages", handleSend(db, opts.Orchestrator))
	api.POST("/chats/:id/debate", handleDebate(db, opts.Orchestrator))
	api.GET("/chats/:id/events", handleSSE(db))

	api.POST("/feedback", handleFeedbackCreate(db))
}

func handlePersonaList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var personas []models.Persona
		if err := db.Order("created_at").Find(&personas).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, personas)
	}
}

func handlePersonaCreate(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		Name        string   `json:"name" binding:"required"`
		Bio         string   `json:"bio"`
		Personality string   `json:"personality"`
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature"`
		ProviderID  string   `json:"provider_id"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := models.GenerateID("pe")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		p := models.Persona{
			ID:          id,
			Name:        body.Name,
			Bio:         body.Bio,
			Personality: body.Personality,
			Model:       body.Model,
			Temperature: body.Temperature,
			ProviderID:  body.ProviderID,
		}
		if err := db.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func handlePersonaGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p models.Persona
		if err := db.First(&p, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handlePersonaUpdate(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		Name        *string  `json:"name"`
		Bio         *string  `json:"bio"`
		Personality *string  `json:"personality"`
		Model       *string  `json:"model"`
		Temperature *float64 `json:"temperature"`
		ProviderID  *string  `json:"provider_id"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var p models.Persona
		if err := db.First(&p, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
			return
		}
		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.Bio != nil {
			p.Bio = *body.Bio
		}
		if body.Personality != nil {
			p.Personality = *body.Personality
		}
		if body.Model != nil {
			p.Model = *body.Model
		}
		if body.Temperature != nil {
			p.Temperature = body.Temperature
		}
		if body.ProviderID != nil {
			p.ProviderID = *body.ProviderID
		}
		if err := db.Save(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handlePersonaDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		result := db.Where("id = ?", id).Delete(&models.Persona{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
			return
		}
		db.Where("persona_id = ?", id).Delete(&models.ChatParticipant{})
		c.Status(http.StatusNoContent)
	}
}

func handleProviderList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var providers []models.Provider
		if err := db.Order("created_at").Find(&providers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range providers {
			if providers[i].APIKey != "" {
				providers[i].APIKey = redactedKey
			}
		}
		c.JSON(http.StatusOK, providers)
	}
}

func handleProviderCreate(db *gorm.DB, v *vault.Vault) gin.HandlerFunc {
	type req struct {
		Kind        string  `json:"kind" binding:"required"`
		Name        string  `json:"name"`
		APIURL      string  `json:"api_url"`
		APIKey      string  `json:"api_key"`
		Model       string  `json:"model" binding:"required"`
		Temperature float64 `json:"temperature"`
		IsDefault   bool    `json:"is_default"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := llm.ValidateConfig(llm.Config{
			Kind:   llm.Kind(body.Kind),
			APIKey: body.APIKey,
			APIURL: body.APIURL,
			Model:  body.Model,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		key := body.APIKey
		if key != "" {
			if v == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "credential vault is not configured"})
				return
			}
			encrypted, err := v.Encrypt(key)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			key = encrypted
		}

		id, err := models.GenerateID("pr")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		name := body.Name
		if name == "" {
			if info, ok := llm.KindInfo(llm.Kind(body.Kind)); ok {
				name = info.Name
			}
		}
		p := models.Provider{
			ID:          id,
			Kind:        body.Kind,
			Name:        name,
			APIURL:      body.APIURL,
			APIKey:      key,
			Model:       body.Model,
			Temperature: body.Temperature,
			IsDefault:   body.IsDefault,
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if p.IsDefault {
				if err := tx.Model(&models.Provider{}).Where("is_default = ?", true).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&p).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		p.APIKey = redactedKey
		c.JSON(http.StatusCreated, p)
	}
}

func handleProviderUpdate(db *gorm.DB, v *vault.Vault) gin.HandlerFunc {
	type req struct {
		Name        *string  `json:"name"`
		APIURL      *string  `json:"api_url"`
		APIKey      *string  `json:"api_key"`
		Model       *string  `json:"model"`
		Temperature *float64 `json:"temperature"`
		IsDefault   *bool    `json:"is_default"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var p models.Provider
		if err := db.First(&p, "id = ?", c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.APIURL != nil {
			p.APIURL = *body.APIURL
		}
		if body.Model != nil {
			p.Model = *body.Model
		}
		if body.Temperature != nil {
			p.Temperature = *body.Temperature
		}
		if body.APIKey != nil && *body.APIKey != "" {
			if v == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "credential vault is not configured"})
				return
			}
			encrypted, err := v.Encrypt(*body.APIKey)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			p.APIKey = encrypted
		}
		if body.IsDefault != nil {
			p.IsDefault = *body.IsDefault
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if body.IsDefault != nil && *body.IsDefault {
				if err := tx.Model(&models.Provider{}).Where("is_default = ? AND id <> ?", true, p.ID).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Save(&p).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if p.APIKey != "" {
			p.APIKey = redactedKey
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleProviderDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var count int64
		db.Model(&models.Persona{}).Where("provider_id = ?", id).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "provider is in use by personas"})
			return
		}
		result := db.Where("id = ?", id).Delete(&models.Provider{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleProviderUsage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		usage, err := ratelimit.Usage(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"limit":     usage.Limit,
			"remaining": usage.Remaining,
			"reset_at":  usage.ResetAt.UTC().Format(time.RFC3339),
		})
	}
}

func handleChatList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var chats []models.Chat
		if err := db.Order("updated_at DESC").Find(&chats).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, chats)
	}
}

func handleChatCreate(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		Title       string   `json:"title" binding:"required"`
		Topic       string   `json:"topic"`
		IsAutoMode  bool     `json:"is_auto_mode"`
		CreatorName string   `json:"creator_name"`
		PersonaIDs  []string `json:"persona_ids"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := chat.Create(db, chat.CreateOpts{
			Title:       body.Title,
			Topic:       body.Topic,
			IsAutoMode:  body.IsAutoMode,
			CreatorName: body.CreatorName,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(body.PersonaIDs) > 0 {
			chat.AddParticipants(db, created.ID, body.PersonaIDs)
		}
		c.JSON(http.StatusCreated, created)
	}
}

func handleChatDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		loaded, err := chat.Get(db, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		participants, err := chat.Participants(db, loaded.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"chat": loaded, "participants": participants})
	}
}

func handleParticipantAdd(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		PersonaIDs []string `json:"persona_ids" binding:"required"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		added, skipped, err := chat.AddParticipants(db, c.Param("id"), body.PersonaIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"added": added, "skipped": skipped})
	}
}

func handleParticipantRemove(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		PersonaIDs []string `json:"persona_ids" binding:"required"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		removed, err := chat.RemoveParticipants(db, c.Param("id"), body.PersonaIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

func handleAutoMode(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		Enabled bool `json:"enabled"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := chat.SetAutoMode(db, c.Param("id"), body.Enabled); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"is_auto_mode": body.Enabled})
	}
}

func handleMessageList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msgs []models.Message
		if err := db.Where("chat_id = ?", c.Param("id")).
			Order("created_at, id").Find(&msgs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

// handleSend commits a human message and triggers one persona reply in the
// background.
func handleSend(db *gorm.DB, orch *debate.Orchestrator) gin.HandlerFunc {
	type req struct {
		Content string `json:"content" binding:"required"`
	}
	return func(c *gin.Context) {
		chatID := c.Param("id")
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		content := protect.SanitizeInput(body.Content)
		if err := protect.ValidateInput(content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		loaded, err := chat.Get(db, chatID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		msg := &models.Message{
			ChatID:      chatID,
			Role:        models.RoleUser,
			Content:     content,
			PersonaName: chat.UserDisplayName(loaded),
		}
		if err := chat.Append(db, msg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// On auto-mode chats a human message kicks off a whole session;
		// otherwise it triggers a single reply turn. The session lock makes
		// the kick a no-op when one is already running.
		autoTriggered := false
		if orch != nil {
			if loaded.IsAutoMode {
				autoTriggered = true
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
					defer cancel()
					_, err := orch.RunSession(ctx, debate.RunOpts{ChatID: chatID, RequireAutoMode: true})
					if err != nil && !errors.Is(err, debate.ErrAlreadyRunning) {
						log.Printf("[dashboard] auto session for chat %s: %v", chatID, err)
					}
				}()
			} else {
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
					defer cancel()
					if _, err := orch.ExecuteTurn(ctx, chatID); err != nil {
						log.Printf("[dashboard] reply turn for chat %s: %v", chatID, err)
					}
				}()
			}
		}
		c.JSON(http.StatusCreated, gin.H{"message": msg, "auto_debate_triggered": autoTriggered})
	}
}

// handleDebate starts an autonomous session in the background.
func handleDebate(db *gorm.DB, orch *debate.Orchestrator) gin.HandlerFunc {
	type req struct {
		Turns int `json:"turns"`
	}
	return func(c *gin.Context) {
		chatID := c.Param("id")
		var body req
		if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if orch == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "orchestrator is not configured"})
			return
		}
		if _, err := chat.Get(db, chatID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
			defer cancel()
			report, err := orch.RunSession(ctx, debate.RunOpts{ChatID: chatID, MaxTurns: body.Turns})
			switch {
			case errors.Is(err, debate.ErrAlreadyRunning):
				log.Printf("[dashboard] chat %s session already running", chatID)
			case err != nil:
				log.Printf("[dashboard] chat %s session failed: %v", chatID, err)
			default:
				log.Printf("[dashboard] chat %s session done: %d turns (%s)", chatID, report.TurnsCompleted, report.Stopped)
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	}
}

func handleFeedbackCreate(db *gorm.DB) gin.HandlerFunc {
	type req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Category string `json:"category"`
		Body     string `json:"body" binding:"required"`
	}
	return func(c *gin.Context) {
		var body req
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fb := models.Feedback{
			Name:     body.Name,
			Email:    body.Email,
			Category: body.Category,
			Body:     body.Body,
		}
		if err := db.Create(&fb).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, fb)
	}
}
