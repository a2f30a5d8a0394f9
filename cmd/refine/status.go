package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/config"
	"github.com/refinekit/refine/internal/tempo"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity and configuration",
	Long: `Verifies that credentials are configured and that the Jira and
Tempo APIs are reachable with them.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	healthy := true

	fmt.Printf("Project:  %s (%s)\n", projectName(), cfg.Project.Key)

	km := config.NewKeyringManager()
	if km.IsAvailable() {
		fmt.Printf("Keychain: %s\n", ok("available"))
	} else {
		fmt.Printf("Keychain: %s (tokens must come from environment variables)\n", fail("unavailable"))
	}

	if client, err := newJiraClient(); err != nil {
		fmt.Printf("Jira:     %s %v\n", fail("✗"), err)
		healthy = false
	} else if project, err := client.GetProject(ctx, cfg.Project.Key); err != nil {
		fmt.Printf("Jira:     %s %v\n", fail("✗"), err)
		healthy = false
	} else {
		fmt.Printf("Jira:     %s connected to %s\n", ok("✓"), project.Name)
	}

	if cfg.Tempo.APIToken == "" {
		fmt.Printf("Tempo:    %s no API token configured\n", fail("✗"))
	} else if cfg.Tempo.TeamName == "" {
		fmt.Printf("Tempo:    token set, %s\n", fail("no team configured"))
	} else if tc, err := tempo.NewClient(tempo.Options{APIToken: cfg.Tempo.APIToken, RateLimit: cfg.Project.RateLimit}); err != nil {
		fmt.Printf("Tempo:    %s %v\n", fail("✗"), err)
	} else if team, err := tc.FindTeam(ctx, cfg.Tempo.TeamName); err != nil {
		fmt.Printf("Tempo:    %s %v\n", fail("✗"), err)
	} else {
		fmt.Printf("Tempo:    %s team %s (ID %d)\n", ok("✓"), team.Name, team.ID)
	}

	if cfg.Review.OpenAIKey == "" {
		fmt.Println("Agent:    disabled (no OpenAI key)")
	} else {
		fmt.Printf("Agent:    enabled, model %s\n", cfg.Review.OpenAIModel)
	}

	fmt.Printf("Criteria: %d checklist criteria loaded\n", len(cfg.Checklist.Criteria))

	if !healthy {
		return fmt.Errorf("connectivity check failed")
	}
	return nil
}
