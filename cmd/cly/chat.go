package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/protect"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat management commands",
	}

	cmd.AddCommand(newChatCreateCmd())
	cmd.AddCommand(newChatListCmd())
	cmd.AddCommand(newChatShowCmd())
	cmd.AddCommand(newChatInviteCmd())
	cmd.AddCommand(newChatSendCmd())
	return cmd
}

func newChatCreateCmd() *cobra.Command {
	var (
		configPath string
		title      string
		topic      string
		auto       bool
		creator    string
		personas   []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			created, err := chat.Create(gormDB, chat.CreateOpts{
				Title:       title,
				Topic:       topic,
				IsAutoMode:  auto,
				CreatorName: creator,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created chat %s\n", created.ID)
			if len(personas) > 0 {
				added, skipped, err := chat.AddParticipants(gormDB, created.ID, personas)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %d participant(s), skipped %d\n", added, skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().StringVar(&title, "title", "", "chat title (required)")
	cmd.Flags().StringVar(&topic, "topic", "", "debate topic")
	cmd.Flags().BoolVar(&auto, "auto", false, "enable autonomous debate mode")
	cmd.Flags().StringVar(&creator, "creator", "", "human participant display name")
	cmd.Flags().StringSliceVar(&personas, "personas", nil, "persona IDs to invite")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newChatListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var chats []models.Chat
			if err := gormDB.Order("updated_at DESC").Find(&chats).Error; err != nil {
				return fmt.Errorf("list chats: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTOPIC\tAUTO\tUPDATED")
			for _, c := range chats {
				auto := ""
				if c.IsAutoMode {
					auto = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.ID, clipText(c.Title, 30), clipText(c.Topic, 40), auto,
					c.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}

func newChatShowCmd() *cobra.Command {
	var (
		configPath string
		tail       int
	)

	cmd := &cobra.Command{
		Use:   "show <chat-id>",
		Short: "Show a chat's participants and recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			loaded, err := chat.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			participants, err := chat.Participants(gormDB, loaded.ID)
			if err != nil {
				return err
			}
			msgs, err := chat.RecentMessages(gormDB, loaded.ID, tail)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", loaded.Title, loaded.ID)
			if loaded.Topic != "" {
				fmt.Fprintf(out, "Topic: %s\n", loaded.Topic)
			}
			fmt.Fprint(out, "Participants:")
			for _, p := range participants {
				fmt.Fprintf(out, " %s", p.Name)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out)
			for _, m := range msgs {
				name := m.PersonaName
				if name == "" {
					name = m.Role
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Format("15:04"), name, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().IntVar(&tail, "tail", 20, "number of recent messages to show")
	return cmd
}

func newChatInviteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "invite <chat-id> <persona-id>...",
		Short: "Add personas to a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			added, skipped, err := chat.AddParticipants(gormDB, args[0], args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d participant(s), skipped %d\n", added, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}

func newChatSendCmd() *cobra.Command {
	var (
		configPath string
		reply      bool
	)

	cmd := &cobra.Command{
		Use:   "send <chat-id> <message>",
		Short: "Send a message to a chat as the human participant",
		Long:  "Sends a sanitized message into the chat. With --reply, a persona answers immediately; @mention a persona to address them.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			content := protect.SanitizeInput(args[1])
			if err := protect.ValidateInput(content); err != nil {
				return err
			}

			loaded, err := chat.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			msg := &models.Message{
				ChatID:      loaded.ID,
				Role:        models.RoleUser,
				Content:     content,
				PersonaName: chat.UserDisplayName(loaded),
			}
			if err := chat.Append(gormDB, msg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Sent.")

			if reply {
				orch, _, cleanup, err := buildOrchestrator(cfg, gormDB)
				if err != nil {
					return err
				}
				defer cleanup()

				ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
				defer cancel()
				result, err := orch.ExecuteTurn(ctx, loaded.ID)
				if err != nil {
					return err
				}
				if result == nil {
					fmt.Fprintln(out, "No personas in this chat to reply.")
					return nil
				}
				fmt.Fprintf(out, "\n%s: %s\n", result.Persona.Name, result.Message.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().BoolVar(&reply, "reply", true, "have a persona reply immediately")
	return cmd
}
