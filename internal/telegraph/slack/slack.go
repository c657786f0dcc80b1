// Package slack implements the telegraph Notifier for Slack.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/colloquy/internal/telegraph"
)

// slackClient abstracts the slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts debate turns to a Slack channel.
type Notifier struct {
	client    slackClient
	channelID string
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}
	n := &Notifier{channelID: opts.ChannelID, client: opts.Client}
	if n.client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		n.client = slackapi.New(opts.BotToken)
	}
	return n, nil
}

// Announce posts the turn as an attachment with the persona name as the
// author line.
func (n *Notifier) Announce(ctx context.Context, turn telegraph.Turn) error {
	att := slackapi.Attachment{
		AuthorName: turn.PersonaName,
		Text:       turn.Content,
		Footer:     turn.ChatTitle,
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slackapi.MsgOptionAttachments(att))
	if err != nil {
		return fmt.Errorf("slack: announce turn for chat %s: %w", turn.ChatID, err)
	}
	return nil
}

// Close is a no-op; the Slack client is stateless HTTP.
func (n *Notifier) Close() error { return nil }
