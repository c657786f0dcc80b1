package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/models"
)

func newPersonaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Persona management commands",
	}

	cmd.AddCommand(newPersonaAddCmd())
	cmd.AddCommand(newPersonaListCmd())
	cmd.AddCommand(newPersonaRemoveCmd())
	return cmd
}

func newPersonaAddCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		bio         string
		personality string
		model       string
		temperature float64
		providerID  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			id, err := models.GenerateID("pe")
			if err != nil {
				return err
			}
			p := models.Persona{
				ID:          id,
				Name:        name,
				Bio:         bio,
				Personality: personality,
				Model:       model,
				ProviderID:  providerID,
			}
			if cmd.Flags().Changed("temperature") {
				p.Temperature = &temperature
			}
			if err := gormDB.Create(&p).Error; err != nil {
				return fmt.Errorf("create persona: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created persona %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().StringVar(&name, "name", "", "persona name (required)")
	cmd.Flags().StringVar(&bio, "bio", "", "short background blurb")
	cmd.Flags().StringVar(&personality, "personality", "", "personality and speaking style")
	cmd.Flags().StringVar(&model, "model", "", "model override (defaults to the provider's model)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature override")
	cmd.Flags().StringVar(&providerID, "provider", "", "provider ID (defaults to the default provider)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newPersonaListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var personas []models.Persona
			if err := gormDB.Order("created_at").Find(&personas).Error; err != nil {
				return fmt.Errorf("list personas: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODEL\tPROVIDER\tBIO")
			for _, p := range personas {
				provider := p.ProviderID
				if provider == "" {
					provider = "(default)"
				}
				model := p.Model
				if model == "" {
					model = "(provider)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, model, provider, clipText(p.Bio, 40))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}

func newPersonaRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rm <persona-id>",
		Short: "Delete a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			result := gormDB.Where("id = ?", args[0]).Delete(&models.Persona{})
			if result.Error != nil {
				return fmt.Errorf("delete persona: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("persona %s not found", args[0])
			}
			gormDB.Where("persona_id = ?", args[0]).Delete(&models.ChatParticipant{})
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted persona %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}
