package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/output"
	"github.com/refinekit/refine/internal/prep"
)

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare a refinement session",
	Long: `Pulls the top of the backlog in board order, scores each issue
against the Definition of Ready, and reports what is missing so the team
can fix the gaps before the refinement meeting.`,
	RunE: runPrep,
}

func init() {
	prepCmd.Flags().IntP("limit", "n", 0, "number of backlog items to check (default from config)")
}

func runPrep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newJiraClient()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	preparer := prep.NewPreparer(client, cfg.Checklist, cfg.Prep, projectName(), cfg.Statuses.NotReady)
	items, summary, err := preparer.Run(ctx, limit)
	if err != nil {
		return err
	}

	return output.Render(os.Stdout, verbosity(), &output.PrepReport{
		Project:   projectName(),
		Items:     items,
		Summary:   summary,
		Threshold: cfg.Prep.MinReadinessScore,
	})
}
