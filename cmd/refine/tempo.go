package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/output"
	"github.com/refinekit/refine/internal/tempo"
)

var tempoCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Check Tempo timesheet submissions for a week",
	Long: `Checks which team members have submitted their Tempo timesheets for
a given week and breaks submitted time down by Jira card, flagging cards
that are missing billing account codes.`,
	RunE: runTempo,
}

func init() {
	tempoCmd.Flags().Int("weeks-ago", 1, "which week to check (1 = last week, 0 = current week)")
}

func runTempo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if cfg.Tempo.TeamName == "" {
		return fmt.Errorf("no Tempo team configured (set tempo.team_name or TEMPO_TEAM_NAME)")
	}

	tempoClient, err := tempo.NewClient(tempo.Options{
		APIToken:  cfg.Tempo.APIToken,
		RateLimit: cfg.Project.RateLimit,
	})
	if err != nil {
		return err
	}
	jiraClient, err := newJiraClient()
	if err != nil {
		return err
	}

	weeksAgo, _ := cmd.Flags().GetInt("weeks-ago")
	weekStart, weekEnd := tempo.WeekWindow(time.Now(), weeksAgo)
	logger.WithFields(map[string]any{
		"week_start": weekStart.Format("2006-01-02"),
		"week_end":   weekEnd.Format("2006-01-02"),
	}).Debug("Reconciling timesheets")

	reconciler := tempo.NewReconciler(tempoClient, jiraClient, cfg.Tempo.TeamName)
	report, err := reconciler.Run(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}

	return output.Render(os.Stdout, verbosity(), &output.TempoReport{
		Report:    report,
		BrowseURL: jiraClient.BrowseURL,
	})
}
