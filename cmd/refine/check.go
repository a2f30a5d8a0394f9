package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/cache"
	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/jira"
	"github.com/refinekit/refine/internal/output"
	"github.com/refinekit/refine/internal/review"
)

var checkCmd = &cobra.Command{
	Use:   "check <issue-key>",
	Short: "Score an issue against the Definition of Ready",
	Long: `Scores a single issue against the configured Definition of Ready
checklist and reports what is missing.

With --agent, the free-text fields additionally go through an LLM quality
review: presence checks catch empty fields, the agent catches template text
that merely looks filled in.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("agent", false, "run the LLM quality review on free-text fields")
	checkCmd.Flags().Bool("comment", false, "post the readiness report as a Jira comment")
	checkCmd.Flags().Bool("transition", false, "move the issue to the ready status when it meets the threshold")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	key := strings.ToUpper(args[0])

	client, err := newJiraClient()
	if err != nil {
		return err
	}

	store := openIssueCache()
	if store != nil {
		defer store.Close()
	}
	issue, err := cache.GetOrFetch(store, key, func() (jira.Issue, error) {
		fetched, err := client.GetIssue(ctx, key)
		if err != nil {
			return jira.Issue{}, err
		}
		return *fetched, nil
	})
	if err != nil {
		return err
	}

	result := dor.Score(issue, cfg.Checklist)
	report := &output.CheckReport{
		Key:     issue.Key,
		Summary: issue.Summary,
		Type:    issue.Type,
		Status:  issue.Status,
		URL:     client.BrowseURL(issue.Key),
		Result:  result,
		Level:   string(result.Level()),
	}

	if agent, _ := cmd.Flags().GetBool("agent"); agent {
		session, err := runAgentReview(ctx, &issue)
		if err != nil {
			return err
		}
		report.Review = session
	}

	if err := output.Render(os.Stdout, verbosity(), report); err != nil {
		return err
	}

	if comment, _ := cmd.Flags().GetBool("comment"); comment {
		if err := client.AddComment(ctx, issue.Key, report.CommentText()); err != nil {
			return fmt.Errorf("post readiness comment: %w", err)
		}
		logger.WithField("issue", issue.Key).Info("Posted readiness comment")
	}

	if transition, _ := cmd.Flags().GetBool("transition"); transition {
		if err := transitionIfReady(ctx, client, &issue, result); err != nil {
			return err
		}
	}
	return nil
}

func runAgentReview(ctx context.Context, issue *jira.Issue) (*review.Session, error) {
	reqs := review.BuildRequests(issue)
	if len(reqs) == 0 {
		logger.Info("Nothing to review: no free-text fields with content")
		return nil, nil
	}

	evaluator := review.NewEvaluator(cfg.Review.OpenAIKey, cfg.Review.OpenAIModel)
	if !evaluator.Enabled() {
		return nil, fmt.Errorf("agent review needs an OpenAI key: set OPENAI_API_KEY or run 'refine config set-token openai'")
	}

	session := review.NewSession(issue.Key, cfg.Review.OpenAIModel)
	if err := evaluator.Evaluate(ctx, session, reqs); err != nil {
		return nil, err
	}
	return session, nil
}

// transitionIfReady moves the issue to the configured ready status, but only
// when the score clears the readiness threshold.
func transitionIfReady(ctx context.Context, client *jira.Client, issue *jira.Issue, result dor.Result) error {
	threshold := cfg.Prep.MinReadinessScore
	if result.Percentage < threshold {
		return fmt.Errorf("%s scores %d%%, below the %d%% threshold; not transitioning",
			issue.Key, result.Percentage, threshold)
	}

	transitions, err := client.GetTransitions(ctx, issue.Key)
	if err != nil {
		return err
	}
	for _, t := range transitions {
		if strings.EqualFold(t.Name, cfg.Statuses.Ready) || strings.EqualFold(t.To.Name, cfg.Statuses.Ready) {
			if err := client.TransitionIssue(ctx, issue.Key, t.ID); err != nil {
				return err
			}
			logger.WithFields(map[string]any{"issue": issue.Key, "status": cfg.Statuses.Ready}).
				Info("Issue transitioned")
			return nil
		}
	}
	return fmt.Errorf("no transition to %q available from status %q", cfg.Statuses.Ready, issue.Status)
}
