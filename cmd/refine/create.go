package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/draft"
	"github.com/refinekit/refine/internal/output"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a well-structured issue interactively",
	Long: `Walks through creating a Jira issue that is as complete as possible
before refinement: story syntax, Gherkin acceptance criteria, and the
description sections the Definition of Ready checks for.`,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newJiraClient()
	if err != nil {
		return err
	}
	if len(cfg.IssueTypes) == 0 {
		return fmt.Errorf("no issue types configured (set issue_types in the config file)")
	}

	d := &draft.Draft{}
	if err := gatherBasics(d); err != nil {
		return err
	}
	if d.IsStory() {
		if err := gatherStorySyntax(d); err != nil {
			return err
		}
	}
	if err := gatherScenarios(d); err != nil {
		return err
	}
	if err := gatherConsiderations(d); err != nil {
		return err
	}

	fields, err := d.BuildFields(cfg.Project.Key, cfg.IssueTypes, cfg.CustomFields)
	if err != nil {
		return err
	}

	confirmed, err := confirmPreview(d)
	if err != nil || !confirmed {
		fmt.Println("Issue creation cancelled.")
		return err
	}

	key, err := client.CreateIssue(ctx, fields)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	fmt.Printf("Created %s\nView at: %s\n", key, client.BrowseURL(key))

	// Fresh fetch so the score reflects what Jira actually stored.
	created, err := client.GetIssue(ctx, key)
	if err != nil {
		logger.WithError(err).Warn("Could not score the new issue")
		return nil
	}
	result := dor.Score(*created, cfg.Checklist)
	return output.Render(os.Stdout, verbosity(), &output.CheckReport{
		Key:     created.Key,
		Summary: created.Summary,
		Type:    created.Type,
		Status:  created.Status,
		URL:     client.BrowseURL(created.Key),
		Result:  result,
		Level:   string(result.Level()),
	})
}

func gatherBasics(d *draft.Draft) error {
	names := make([]string, 0, len(cfg.IssueTypes))
	for name := range cfg.IssueTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	typeOptions := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		typeOptions = append(typeOptions, huh.NewOption(titleCase(name), name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Issue type").
				Options(typeOptions...).
				Value(&d.IssueType),

			huh.NewInput().
				Title("Summary").
				Description("A clear, specific title").
				Value(&d.Summary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("summary is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Epic link").
				Description("Parent epic key, e.g. PROJ-100 (optional)").
				Value(&d.EpicKey),

			huh.NewText().
				Title("Description").
				Description("What this is and why it matters").
				CharLimit(5000).
				Value(&d.Description),

			huh.NewMultiSelect[string]().
				Title("Environments").
				Description("Where this will be deployed").
				Options(
					huh.NewOption("Staging", "Staging").Selected(true),
					huh.NewOption("Pre-production", "Pre-production").Selected(true),
					huh.NewOption("Production", "Production").Selected(true),
				).
				Value(&d.Environments),
		),
	)
	return runForm(form)
}

func gatherStorySyntax(d *draft.Draft) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("As a ...").
				Description("User type").
				Placeholder("user").
				Value(&d.UserType),
			huh.NewInput().
				Title("I want ...").
				Description("Capability or feature").
				Value(&d.Capability).
				Validate(required("capability")),
			huh.NewInput().
				Title("So that ...").
				Description("Business value or outcome").
				Value(&d.Value).
				Validate(required("value")),
		),
	)
	return runForm(form)
}

func gatherScenarios(d *draft.Draft) error {
	featureForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Feature name").
				Description("The Gherkin feature the scenarios belong to").
				Value(&d.Feature).
				Validate(required("feature name")),
		),
	)
	if err := runForm(featureForm); err != nil {
		return err
	}

	for {
		var s draft.Scenario
		var more bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Scenario name").Value(&s.Name).Validate(required("scenario name")),
				huh.NewInput().Title("Given").Description("Precondition").Value(&s.Given),
				huh.NewInput().Title("When").Description("Action").Value(&s.When),
				huh.NewInput().Title("Then").Description("Expected outcome").Value(&s.Then),
				huh.NewConfirm().Title("Add another scenario?").Value(&more),
			),
		)
		if err := runForm(form); err != nil {
			return err
		}
		d.Scenarios = append(d.Scenarios, s)
		if !more {
			return nil
		}
	}
}

func gatherConsiderations(d *draft.Draft) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Security considerations").
				Description("Implications, risks, auth, data protection (leave empty to defer)").
				Value(&d.Security),
			huh.NewText().
				Title("Cost implications").
				Description("Infrastructure, licensing, budget (leave empty to defer)").
				Value(&d.Cost),
			huh.NewText().
				Title("Telemetry & monitoring").
				Description("Metrics, alerts, dashboards (leave empty to defer)").
				Value(&d.Telemetry),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Documentation").
				Description("Links or references (leave empty to defer)").
				Value(&d.Documentation),
			huh.NewText().
				Title("What to demo").
				Description("What stakeholders will see when this is done (leave empty to defer)").
				Value(&d.Demo),
		),
	)
	return runForm(form)
}

func confirmPreview(d *draft.Draft) (bool, error) {
	fmt.Printf("\nType:    %s\nSummary: %s\n", titleCase(d.IssueType), d.Summary)
	if d.EpicKey != "" {
		fmt.Printf("Epic:    %s\n", d.EpicKey)
	}
	if syntax := d.StorySyntax(); syntax != "" {
		fmt.Printf("\n%s\n", syntax)
	}
	if ac := d.AcceptanceCriteria(); ac != "" {
		fmt.Printf("\n%s\n", ac)
	}
	fmt.Println()

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Create this issue?").
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := runForm(form); err != nil {
		return false, err
	}
	return confirmed, nil
}

func runForm(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return fmt.Errorf("cancelled")
		}
		return err
	}
	return nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
