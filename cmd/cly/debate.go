package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/debate"
)

func newDebateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Autonomous debate commands",
	}

	cmd.AddCommand(newDebateRunCmd())
	cmd.AddCommand(newDebateAutoCmd())
	cmd.AddCommand(newDebateStopCmd())
	return cmd
}

func newDebateRunCmd() *cobra.Command {
	var (
		configPath string
		turns      int
	)

	cmd := &cobra.Command{
		Use:   "run <chat-id>",
		Short: "Drive an autonomous debate session for a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			orch, _, cleanup, err := buildOrchestrator(cfg, gormDB)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := orch.RunSession(cmd.Context(), debate.RunOpts{
				ChatID:   args[0],
				MaxTurns: turns,
			})
			if report != nil && report.TurnsCompleted > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d turn(s)\n", report.TurnsCompleted)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %d finished (%s)\n", report.SessionID, report.Stopped)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().IntVar(&turns, "turns", 0, "turn ceiling (0 = one round, a turn per participant)")
	return cmd
}

func newDebateAutoCmd() *cobra.Command {
	var (
		configPath string
		enable     bool
		disable    bool
	)

	cmd := &cobra.Command{
		Use:   "auto <chat-id>",
		Short: "Enable or disable a chat's autonomous mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable == disable {
				return fmt.Errorf("pass exactly one of --on or --off")
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := chat.SetAutoMode(gormDB, args[0], enable); err != nil {
				return err
			}
			state := "disabled"
			if enable {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auto mode %s for chat %s\n", state, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().BoolVar(&enable, "on", false, "enable auto mode")
	cmd.Flags().BoolVar(&disable, "off", false, "disable auto mode")
	return cmd
}

func newDebateStopCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stop <chat-id>",
		Short: "Disable auto mode so the running session stops at its next turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := chat.SetAutoMode(gormDB, args[0], false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auto mode disabled for chat %s; the session will stop before its next turn.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}
