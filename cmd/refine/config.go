package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/refinekit/refine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Refine configuration and API tokens",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Prints the configuration after defaults, the config file, and
environment overrides have been applied. Secrets are never printed, only
whether they are set.`,
	RunE: runConfigShow,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <jira|tempo|openai>",
	Short: "Store an API token in the OS keychain",
	Long: `Prompts for a token and stores it in the OS keychain (macOS
Keychain, Windows Credential Manager, or Linux Secret Service). Environment
variables still take precedence when set.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jira", "tempo", "openai"},
	RunE:      runConfigSetToken,
}

var configClearTokenCmd = &cobra.Command{
	Use:       "clear-token <jira|tempo|openai>",
	Short:     "Remove an API token from the OS keychain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jira", "tempo", "openai"},
	RunE:      runConfigClearToken,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configClearTokenCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	encoded, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	os.Stdout.Write(encoded)

	fmt.Println("secrets:")
	fmt.Printf("  jira_api_token: %s\n", secretStatus(cfg.Project.APIToken))
	fmt.Printf("  tempo_api_token: %s\n", secretStatus(cfg.Tempo.APIToken))
	fmt.Printf("  openai_api_key: %s\n", secretStatus(cfg.Review.OpenAIKey))
	return nil
}

func secretStatus(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}

func keyringItem(name string) (string, error) {
	switch name {
	case "jira":
		return config.KeyringJiraTokenItem, nil
	case "tempo":
		return config.KeyringTempoTokenItem, nil
	case "openai":
		return config.KeyringOpenAIKeyItem, nil
	default:
		return "", fmt.Errorf("unknown token %q (expected jira, tempo, or openai)", name)
	}
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	item, err := keyringItem(args[0])
	if err != nil {
		return err
	}

	km := config.NewKeyringManager()
	if !km.IsAvailable() {
		return fmt.Errorf("no OS keychain available; export the token as an environment variable instead")
	}

	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API token", args[0])).
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(required("token")),
		),
	)
	if err := runForm(form); err != nil {
		return err
	}

	if err := km.SetSecret(item, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Printf("Stored %s token in the OS keychain.\n", args[0])
	return nil
}

func runConfigClearToken(cmd *cobra.Command, args []string) error {
	item, err := keyringItem(args[0])
	if err != nil {
		return err
	}

	km := config.NewKeyringManager()
	if err := km.DeleteSecret(item); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	fmt.Printf("Removed %s token from the OS keychain.\n", args[0])
	return nil
}
