// Package debate is the orchestration core: it schedules turns, wraps
// every model call in the safety pipeline, and drives autonomous
// multi-turn sessions under a per-chat advisory lock.
package debate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/colloquy/internal/breaker"
	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/config"
	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/protect"
	"github.com/zulandar/colloquy/internal/ratelimit"
	"github.com/zulandar/colloquy/internal/telegraph"
	"github.com/zulandar/colloquy/internal/vault"
	"gorm.io/gorm"
)

// callTimeout bounds a single persona model call.
const callTimeout = 30 * time.Second

// maxAttempts is the total number of model calls per turn: the first try
// plus one corrective retry.
const maxAttempts = 2

// correctiveDirective is appended to the conversation on retry after a
// cleaned response failed validation.
const correctiveDirective = "Your previous response was unusable. Respond in character, " +
	"in plain conversational prose, without repeating yourself."

// Orchestrator wires the safety pipeline, breaker, rate limiter, and
// announcers around the model clients.
type Orchestrator struct {
	db       *gorm.DB
	cfg      config.DebateConfig
	breaker  *breaker.Registry
	vault    *vault.Vault
	notifier telegraph.Notifier

	// newClient is swappable so tests can inject a fake model.
	newClient func(llm.Config) (llm.Client, error)
}

// Opts holds Orchestrator dependencies.
type Opts struct {
	DB       *gorm.DB
	Config   config.DebateConfig
	Breaker  *breaker.Registry
	Vault    *vault.Vault
	Notifier telegraph.Notifier
}

// New creates an Orchestrator.
func New(opts Opts) *Orchestrator {
	if opts.Breaker == nil {
		opts.Breaker = breaker.NewRegistry(breaker.Config{})
	}
	if opts.Notifier == nil {
		opts.Notifier = telegraph.Nop{}
	}
	return &Orchestrator{
		db:        opts.DB,
		cfg:       opts.Config,
		breaker:   opts.Breaker,
		vault:     opts.Vault,
		notifier:  opts.Notifier,
		newClient: llm.New,
	}
}

// TurnResult reports one committed persona turn.
type TurnResult struct {
	Message   *models.Message
	Persona   *models.Persona
	Truncated bool
	Retried   bool
}

// ExecuteTurn runs one complete turn for a chat: pick the speaker, check
// the provider's breaker and daily quota, call the model, run the response
// through the safety pipeline, and commit. A response that fails
// validation gets one corrective retry before the turn errors out.
// A chat with no eligible speaker returns (nil, nil).
func (o *Orchestrator) ExecuteTurn(ctx context.Context, chatID string) (*TurnResult, error) {
	c, err := chat.Get(o.db, chatID)
	if err != nil {
		return nil, err
	}
	participants, err := chat.Participants(o.db, chatID)
	if err != nil {
		return nil, err
	}
	history, err := chat.RecentMessages(o.db, chatID, ContextWindow)
	if err != nil {
		return nil, err
	}

	speaker, err := o.SelectSpeaker(ctx, c, participants, history)
	if err != nil {
		return nil, err
	}
	if speaker == nil {
		// No eligible speaker; nothing to do.
		return nil, nil
	}

	provider, err := o.resolveProvider(speaker)
	if err != nil {
		return nil, err
	}

	if o.breaker.IsOpen(provider.ID) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, provider.Name)
	}

	limit := o.cfg.DailyLimit
	quota, err := ratelimit.CheckN(o.db, provider.ID, limit)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		// Quota exhaustion counts as a provider failure so a hammered
		// provider trips its breaker too.
		o.breaker.RecordFailure(provider.ID)
		return nil, &RateLimitError{ProviderID: provider.ID, Limit: quota.Limit, ResetAt: quota.ResetAt}
	}

	client, err := o.clientFor(speaker, provider)
	if err != nil {
		return nil, err
	}

	humanName := chat.UserDisplayName(c)
	system := BuildPersonaPrompt(speaker, c, participants, humanName)

	var content string
	var truncated, retried bool
	directive := ""
	for attempt := 1; ; attempt++ {
		window := BuildConversationWindow(speaker, c, history, humanName, directive)
		msgs := append([]llm.Message{{Role: llm.RoleSystem, Content: system}}, window...)

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		resp, err := client.Chat(callCtx, msgs)
		cancel()
		if err != nil {
			o.breaker.RecordFailure(provider.ID)
			return nil, fmt.Errorf("debate: %s via %s: %w", speaker.Name, provider.Name, err)
		}

		cleaned := protect.CleanResponse(resp.Content, speaker.Name)
		if err := protect.ValidateResponse(cleaned); err == nil && !isRepetitive(cleaned, history) {
			content = cleaned
			break
		} else if attempt >= maxAttempts {
			o.breaker.RecordFailure(provider.ID)
			return nil, fmt.Errorf("%w: %s after %d attempts", ErrExhaustedRetries, speaker.Name, attempt)
		} else {
			log.Printf("[debate] %s response rejected (%v), retrying with directive", speaker.Name, err)
			directive = correctiveDirective
			retried = true
		}
	}

	if len(content) > protect.MaxResponseLength {
		content = protect.Truncate(content, protect.MaxResponseLength)
		truncated = true
	}

	msg := &models.Message{
		ChatID:      chatID,
		Role:        models.RolePersona,
		Content:     content,
		PersonaID:   speaker.ID,
		PersonaName: speaker.Name,
	}
	if err := chat.Append(o.db, msg); err != nil {
		return nil, err
	}
	if err := chat.SetLastSpeaker(o.db, chatID, speaker.ID); err != nil {
		return nil, err
	}
	o.breaker.RecordSuccess(provider.ID)

	if err := o.notifier.Announce(ctx, telegraph.Turn{
		ChatID:      chatID,
		ChatTitle:   c.Title,
		PersonaName: speaker.Name,
		Content:     content,
	}); err != nil {
		log.Printf("[debate] announce failed for chat %s: %v", chatID, err)
	}

	return &TurnResult{Message: msg, Persona: speaker, Truncated: truncated, Retried: retried}, nil
}

// isRepetitive checks the cleaned response against the recent committed
// turns of every speaker, so a persona echoing another participant is
// rejected just like one repeating itself.
func isRepetitive(content string, history []models.Message) bool {
	prior := make([]string, len(history))
	for i, m := range history {
		prior[i] = m.Content
	}
	return protect.IsRepetitive(content, prior)
}

// resolveProvider returns the persona's provider, falling back to the
// default provider when the persona has none.
func (o *Orchestrator) resolveProvider(p *models.Persona) (*models.Provider, error) {
	var provider models.Provider
	if p.ProviderID != "" {
		if err := o.db.Where("id = ?", p.ProviderID).First(&provider).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: persona %s references missing provider %s", ErrNoProvider, p.Name, p.ProviderID)
			}
			return nil, fmt.Errorf("debate: load provider: %w", err)
		}
		return &provider, nil
	}
	if err := o.db.Where("is_default = ?", true).First(&provider).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no default provider", ErrNoProvider)
		}
		return nil, fmt.Errorf("debate: load default provider: %w", err)
	}
	return &provider, nil
}

// clientFor builds a model client for a persona on a provider, decrypting
// the API key for the lifetime of the call. Persona-level model and
// temperature override the provider's.
func (o *Orchestrator) clientFor(p *models.Persona, provider *models.Provider) (llm.Client, error) {
	cfg, err := o.clientConfig(provider)
	if err != nil {
		return nil, err
	}
	if p.Model != "" {
		cfg.Model = p.Model
	}
	if p.Temperature != nil {
		cfg.Temperature = *p.Temperature
	}
	return o.newClient(cfg)
}

// clientConfig maps a stored provider into an llm.Config with the key
// decrypted.
func (o *Orchestrator) clientConfig(provider *models.Provider) (llm.Config, error) {
	key := provider.APIKey
	if key != "" && vault.IsEncrypted(key) {
		if o.vault == nil {
			return llm.Config{}, fmt.Errorf("debate: provider %s key is encrypted but no vault is configured", provider.Name)
		}
		decrypted, err := o.vault.Decrypt(key)
		if err != nil {
			return llm.Config{}, fmt.Errorf("debate: decrypt key for %s: %w", provider.Name, err)
		}
		key = decrypted
	}
	return llm.Config{
		Kind:        llm.Kind(provider.Kind),
		APIKey:      key,
		APIURL:      provider.APIURL,
		Model:       provider.Model,
		Temperature: provider.Temperature,
	}, nil
}

// resolveDefaultClientConfig builds a client config for the default
// provider, for auxiliary calls like speaker selection.
func (o *Orchestrator) resolveDefaultClientConfig() (llm.Config, string, error) {
	var provider models.Provider
	if err := o.db.Where("is_default = ?", true).First(&provider).Error; err != nil {
		return llm.Config{}, "", ErrNoProvider
	}
	cfg, err := o.clientConfig(&provider)
	if err != nil {
		return llm.Config{}, "", err
	}
	return cfg, provider.ID, nil
}
