package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/ratelimit"
)

func newUsageCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show per-provider daily quota consumption",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var providers []models.Provider
			if err := gormDB.Order("created_at").Find(&providers).Error; err != nil {
				return fmt.Errorf("list providers: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tUSED\tLIMIT\tRESETS")
			for _, p := range providers {
				usage, err := ratelimit.Usage(gormDB, p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s (%s)\t%d\t%d\t%s\n",
					p.Name, p.ID, usage.Limit-usage.Remaining, usage.Limit,
					usage.ResetAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}
