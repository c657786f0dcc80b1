// Package discord implements the telegraph Notifier for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/colloquy/internal/telegraph"
)

// maxMessageLength is Discord's hard cap per message.
const maxMessageLength = 2000

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}

// Notifier posts debate turns to a Discord channel.
type Notifier struct {
	sess      session
	channelID string
}

// Opts holds parameters for creating a Discord Notifier.
type Opts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Notifier and opens the gateway connection.
func New(opts Opts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}

	n := &Notifier{channelID: opts.ChannelID, sess: opts.Session}
	if n.sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		n.sess = &realSession{s: s}
	}
	if err := n.sess.Open(); err != nil {
		return nil, fmt.Errorf("discord: connect: %w", err)
	}
	return n, nil
}

// Announce posts the turn as "**Name**: content", clipped to Discord's
// message cap.
func (n *Notifier) Announce(ctx context.Context, turn telegraph.Turn) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	content := fmt.Sprintf("**%s**: %s", turn.PersonaName, turn.Content)
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-1] + "…"
	}
	if _, err := n.sess.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("discord: announce turn for chat %s: %w", turn.ChatID, err)
	}
	return nil
}

// Close shuts down the gateway connection.
func (n *Notifier) Close() error {
	return n.sess.Close()
}
