package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/cull"
	"github.com/refinekit/refine/internal/output"
)

var cullCmd = &cobra.Command{
	Use:   "cull",
	Short: "Find stale backlog issues worth closing",
	Long: `Scores old unresolved issues on age, inactivity, and readiness, and
lists the ones that are candidates for culling: issues nobody has touched in
months that still are not refined enough to work on.`,
	RunE: runCull,
}

func init() {
	cullCmd.Flags().Int("age", 0, "minimum age in days (default from config)")
	cullCmd.Flags().Int("activity", 0, "minimum days without activity (default from config)")
	cullCmd.Flags().Int("refinement", 0, "refinement percentage below which issues qualify (default from config)")
}

func runCull(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newJiraClient()
	if err != nil {
		return err
	}

	age, _ := cmd.Flags().GetInt("age")
	activity, _ := cmd.Flags().GetInt("activity")
	refinement, _ := cmd.Flags().GetInt("refinement")
	thresholds := cull.Thresholds{
		AgeDays:        age,
		InactivityDays: activity,
		RefinementPct:  refinement,
	}

	analyzer := cull.NewAnalyzer(client, cfg.Checklist, cfg.Cull, cfg.Project.Key)
	candidates, summary, err := analyzer.Run(ctx, thresholds)
	if err != nil {
		return err
	}

	// Show the thresholds that actually applied, not the zero flags.
	if thresholds.AgeDays <= 0 {
		thresholds.AgeDays = cfg.Cull.AgeThresholdDays
	}
	if thresholds.InactivityDays <= 0 {
		thresholds.InactivityDays = cfg.Cull.NoActivityDays
	}
	if thresholds.RefinementPct <= 0 {
		thresholds.RefinementPct = cfg.Cull.MinRefinementScore
	}

	return output.Render(os.Stdout, verbosity(), &output.CullReport{
		Project:    projectName(),
		Candidates: candidates,
		Summary:    summary,
		Thresholds: thresholds,
	})
}
