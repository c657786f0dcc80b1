package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/dashboard"
	"github.com/zulandar/colloquy/internal/debate"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		sweeper    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Serves the REST API and SSE message streams. With --sweeper, also runs the auto-continue scheduler for auto-mode chats.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			orch, v, cleanup, err := buildOrchestrator(cfg, gormDB)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if sweeper {
				sched, err := debate.NewScheduler(orch)
				if err != nil {
					return err
				}
				go sched.Run(ctx)
			}

			if port <= 0 {
				port = cfg.Server.Port
			}
			return dashboard.Start(ctx, dashboard.StartOpts{
				DB:           gormDB,
				Port:         port,
				Out:          cmd.OutOrStdout(),
				Orchestrator: orch,
				Vault:        v,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (0 = configured server.port)")
	cmd.Flags().BoolVar(&sweeper, "sweeper", true, "run the auto-continue scheduler")
	return cmd
}
