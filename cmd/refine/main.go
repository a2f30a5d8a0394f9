package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/refinekit/refine/internal/cache"
	"github.com/refinekit/refine/internal/config"
	"github.com/refinekit/refine/internal/jira"
	"github.com/refinekit/refine/internal/output"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile  string
	verbose  bool
	quiet    bool
	jsonMode bool
	noCache  bool

	logger *logrus.Logger
	cfg    *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine - backlog readiness tooling for Product Owners",
	Long: `Refine scores Jira issues against a Definition of Ready checklist,
prepares refinement sessions, flags stale backlog items for culling, helps
create well-structured issues, and chases Tempo timesheets.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load configuration")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .refine/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "one-line summaries")
	rootCmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the local issue cache")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "json")

	rootCmd.SetVersionTemplate(`Refine {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(prepCmd)
	rootCmd.AddCommand(cullCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(tempoCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
}

func verbosity() output.Verbosity {
	switch {
	case quiet:
		return output.VerbosityQuiet
	case jsonMode:
		return output.VerbosityJSON
	default:
		return output.DefaultVerbosity()
	}
}

func newJiraClient() (*jira.Client, error) {
	return jira.NewClient(jira.Options{
		CloudID:      cfg.Project.CloudID,
		SiteURL:      cfg.Project.SiteURL,
		Email:        cfg.Project.Email,
		APIToken:     cfg.Project.APIToken,
		ProjectKey:   cfg.Project.Key,
		CustomFields: cfg.CustomFields,
		RateLimit:    cfg.Project.RateLimit,
	})
}

// openIssueCache opens the snapshot cache, or returns nil when caching is
// disabled or unavailable. A nil store reads through to the API.
func openIssueCache() *cache.Store {
	if noCache {
		return nil
	}
	store, err := cache.Open(cfg.Cache.Directory, cfg.Cache.TTL)
	if err != nil {
		logger.WithError(err).Debug("Issue cache unavailable, fetching directly")
		return nil
	}
	return store
}

// projectName is the display name of the project, falling back to the key.
func projectName() string {
	if cfg.Project.Name != "" {
		return cfg.Project.Name
	}
	return cfg.Project.Key
}
