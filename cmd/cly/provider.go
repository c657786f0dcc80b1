package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/colloquy/internal/llm"
	"github.com/zulandar/colloquy/internal/models"
	"github.com/zulandar/colloquy/internal/vault"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Model provider management commands",
	}

	cmd.AddCommand(newProviderAddCmd())
	cmd.AddCommand(newProviderListCmd())
	cmd.AddCommand(newProviderRemoveCmd())
	cmd.AddCommand(newProviderKindsCmd())
	return cmd
}

func newProviderAddCmd() *cobra.Command {
	var (
		configPath  string
		kind        string
		name        string
		apiURL      string
		model       string
		temperature float64
		isDefault   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a model provider",
		Long:  "Registers a model endpoint. The API key is prompted without echo and stored encrypted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			info, ok := llm.KindInfo(llm.Kind(kind))
			if !ok {
				return fmt.Errorf("unknown provider kind %q (see: cly provider kinds)", kind)
			}

			apiKey := ""
			if info.RequiresKey {
				apiKey, err = promptSecret(cmd, fmt.Sprintf("%s API key: ", info.Name))
				if err != nil {
					return err
				}
			}

			if err := llm.ValidateConfig(llm.Config{
				Kind:   llm.Kind(kind),
				APIKey: apiKey,
				APIURL: apiURL,
				Model:  model,
			}); err != nil {
				return err
			}

			stored := ""
			if apiKey != "" {
				v, err := vault.FromEnv()
				if err != nil {
					return err
				}
				stored, err = v.Encrypt(apiKey)
				if err != nil {
					return err
				}
			}

			id, err := models.GenerateID("pr")
			if err != nil {
				return err
			}
			if name == "" {
				name = info.Name
			}
			p := models.Provider{
				ID:          id,
				Kind:        kind,
				Name:        name,
				APIURL:      apiURL,
				APIKey:      stored,
				Model:       model,
				Temperature: temperature,
				IsDefault:   isDefault,
			}
			err = gormDB.Transaction(func(tx *gorm.DB) error {
				if p.IsDefault {
					if err := tx.Model(&models.Provider{}).Where("is_default = ?", true).
						Update("is_default", false).Error; err != nil {
						return err
					}
				}
				return tx.Create(&p).Error
			})
			if err != nil {
				return fmt.Errorf("create provider: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered provider %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	cmd.Flags().StringVar(&kind, "kind", "", "provider kind (required, see: cly provider kinds)")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the kind's name)")
	cmd.Flags().StringVar(&apiURL, "url", "", "API base URL (defaults to the kind's endpoint)")
	cmd.Flags().StringVar(&model, "model", "", "model name (required)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "default sampling temperature")
	cmd.Flags().BoolVar(&isDefault, "default", false, "make this the default provider")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("model")
	return cmd
}

// promptSecret reads a secret from the terminal without echo, falling back
// to a plain line read when stdin is not a terminal (piped input in tests
// and scripts).
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newProviderListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers",
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
			fmt.Fprintln(w, "ID\tNAME\tKIND\tMODEL\tDEFAULT")
			for _, p := range providers {
				def := ""
				if p.IsDefault {
					def = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Kind, p.Model, def)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}

func newProviderRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rm <provider-id>",
		Short: "Delete a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var count int64
			gormDB.Model(&models.Persona{}).Where("provider_id = ?", args[0]).Count(&count)
			if count > 0 {
				return fmt.Errorf("provider %s is in use by %d persona(s)", args[0], count)
			}

			result := gormDB.Where("id = ?", args[0]).Delete(&models.Provider{})
			if result.Error != nil {
				return fmt.Errorf("delete provider: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("provider %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted provider %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "colloquy.yaml", "path to Colloquy config file")
	return cmd
}

func newProviderKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List supported provider kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tDEFAULT URL\tKEY")
			for _, k := range llm.Kinds() {
				info, _ := llm.KindInfo(k)
				key := "required"
				if !info.RequiresKey {
					key = "optional"
				}
				url := info.DefaultURL
				if url == "" {
					url = "(set with --url)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k, info.Name, url, key)
			}
			return w.Flush()
		},
	}
}
