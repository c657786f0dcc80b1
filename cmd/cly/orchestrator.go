package main

import (
	"fmt"
	"log"

	"github.com/zulandar/colloquy/internal/breaker"
	"github.com/zulandar/colloquy/internal/config"
	"github.com/zulandar/colloquy/internal/debate"
	"github.com/zulandar/colloquy/internal/telegraph"
	"github.com/zulandar/colloquy/internal/telegraph/discord"
	"github.com/zulandar/colloquy/internal/telegraph/slack"
	"github.com/zulandar/colloquy/internal/vault"
	"gorm.io/gorm"
)

// buildOrchestrator wires the debate orchestrator from config: vault,
// breaker registry, and any enabled platform notifiers. The vault is
// returned so callers can share it; the cleanup closes the notifiers.
func buildOrchestrator(cfg *config.Config, gormDB *gorm.DB) (*debate.Orchestrator, *vault.Vault, func(), error) {
	v, err := vault.FromEnv()
	if err != nil {
		return nil, nil, nil, err
	}

	notifier, err := buildNotifier(cfg.Telegraph)
	if err != nil {
		return nil, nil, nil, err
	}

	orch := debate.New(debate.Opts{
		DB:       gormDB,
		Config:   cfg.Debate,
		Breaker:  breaker.NewRegistry(breaker.Config{}),
		Vault:    v,
		Notifier: notifier,
	})
	cleanup := func() {
		if err := notifier.Close(); err != nil {
			log.Printf("[cly] close notifiers: %v", err)
		}
	}
	return orch, v, cleanup, nil
}

// buildNotifier assembles the enabled platform announcers.
func buildNotifier(cfg config.TelegraphConfig) (telegraph.Notifier, error) {
	var notifiers telegraph.Multi

	if cfg.Discord.Enabled {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Discord.Token,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("discord notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Slack.Enabled {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Slack.Token,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, fmt.Errorf("slack notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}

	if len(notifiers) == 0 {
		return telegraph.Nop{}, nil
	}
	return notifiers, nil
}
