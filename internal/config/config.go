// Package config loads the toolkit configuration: Jira/Tempo connection
// settings, the Definition of Ready checklist, and report thresholds.
// Configuration is loaded once per run and treated as immutable afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/refinekit/refine/internal/dor"
)

// Config holds all settings for one run.
type Config struct {
	Project      ProjectConfig     `yaml:"project" mapstructure:"project"`
	CustomFields map[string]string `yaml:"custom_fields" mapstructure:"custom_fields"`
	Statuses     StatusConfig      `yaml:"statuses" mapstructure:"statuses"`
	IssueTypes   map[string]string `yaml:"issue_types" mapstructure:"issue_types"`
	Prep         PrepConfig        `yaml:"refinement_prep" mapstructure:"refinement_prep"`
	Cull         CullConfig        `yaml:"backlog_cull" mapstructure:"backlog_cull"`
	Tempo        TempoConfig       `yaml:"tempo" mapstructure:"tempo"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Review       ReviewConfig      `yaml:"review" mapstructure:"review"`

	// Checklist is the Definition of Ready, validated at load time.
	Checklist dor.Checklist `yaml:"-" mapstructure:"-"`
}

type ProjectConfig struct {
	CloudID string `yaml:"cloud_id" mapstructure:"cloud_id"`
	Key     string `yaml:"key" mapstructure:"key"`
	Name    string `yaml:"name" mapstructure:"name"`
	SiteURL string `yaml:"site_url" mapstructure:"site_url"`

	// Credentials never live in the config file.
	Email    string `yaml:"-" mapstructure:"-"`
	APIToken string `yaml:"-" mapstructure:"-"`

	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit"`
}

type StatusConfig struct {
	NotReady string `yaml:"not_ready" mapstructure:"not_ready"`
	Ready    string `yaml:"ready" mapstructure:"ready"`
}

type PrepConfig struct {
	BacklogTopItems   int `yaml:"backlog_top_items" mapstructure:"backlog_top_items"`
	MinReadinessScore int `yaml:"min_readiness_score" mapstructure:"min_readiness_score"`
}

type CullConfig struct {
	AgeThresholdDays   int             `yaml:"age_threshold_days" mapstructure:"age_threshold_days"`
	NoActivityDays     int             `yaml:"no_activity_days" mapstructure:"no_activity_days"`
	MinRefinementScore int             `yaml:"min_refinement_score" mapstructure:"min_refinement_score"`
	Staleness          StalenessConfig `yaml:"staleness" mapstructure:"staleness"`
}

// StalenessConfig parameterizes the staleness formula. Weights should sum to
// 100 so the score lands on a 0-100 scale; the formula clamps regardless.
type StalenessConfig struct {
	AgeCeilingDays        int     `yaml:"age_ceiling_days" mapstructure:"age_ceiling_days"`
	InactivityCeilingDays int     `yaml:"inactivity_ceiling_days" mapstructure:"inactivity_ceiling_days"`
	AgeWeight             float64 `yaml:"age_weight" mapstructure:"age_weight"`
	InactivityWeight      float64 `yaml:"inactivity_weight" mapstructure:"inactivity_weight"`
	RefinementWeight      float64 `yaml:"refinement_weight" mapstructure:"refinement_weight"`
}

type TempoConfig struct {
	TeamName string `yaml:"team_name" mapstructure:"team_name"`
	APIToken string `yaml:"-" mapstructure:"-"`
}

type CacheConfig struct {
	Directory string        `yaml:"directory" mapstructure:"directory"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type ReviewConfig struct {
	OpenAIKey   string `yaml:"-" mapstructure:"-"`
	OpenAIModel string `yaml:"openai_model" mapstructure:"openai_model"`
}

// Default returns the built-in configuration, including the default
// Definition of Ready checklist.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Project: ProjectConfig{
			RateLimit: 5,
		},
		CustomFields: map[string]string{},
		Statuses: StatusConfig{
			NotReady: "Not Ready",
			Ready:    "Ready",
		},
		IssueTypes: map[string]string{},
		Prep: PrepConfig{
			BacklogTopItems:   20,
			MinReadinessScore: 70,
		},
		Cull: CullConfig{
			AgeThresholdDays:   180,
			NoActivityDays:     90,
			MinRefinementScore: 30,
			Staleness: StalenessConfig{
				AgeCeilingDays:        365,
				InactivityCeilingDays: 180,
				AgeWeight:             40,
				InactivityWeight:      40,
				RefinementWeight:      20,
			},
		},
		Cache: CacheConfig{
			Directory: filepath.Join(homeDir, ".refine", "cache"),
			TTL:       time.Hour,
		},
		Review: ReviewConfig{
			OpenAIModel: "gpt-4o-mini",
		},
		Checklist: DefaultChecklist(),
	}
}

// Load reads configuration from file, environment, and keychain. A missing
// config file falls back to defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".refine")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".refine"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, env vars may carry everything needed.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The checklist does not round-trip through viper (criteria order and
	// strict field validation matter), so decode it from the file directly.
	if file := v.ConfigFileUsed(); file != "" {
		checklist, found, err := loadChecklistFile(file)
		if err != nil {
			return nil, err
		}
		if found {
			cfg.Checklist = checklist
		}
	}

	applyEnvOverrides(cfg)

	// Fail fast on a malformed checklist before any scoring begins.
	if err := cfg.Checklist.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition_of_ready: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".refine", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variables on top of file values.
// Secrets follow the precedence: env var, then OS keychain, then nothing.
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("JIRA_URL"); url != "" {
		cfg.Project.SiteURL = url
	}
	if email := os.Getenv("JIRA_EMAIL"); email != "" {
		cfg.Project.Email = email
	}
	if key := os.Getenv("REFINE_PROJECT_KEY"); key != "" {
		cfg.Project.Key = key
	}
	if cloudID := os.Getenv("REFINE_CLOUD_ID"); cloudID != "" {
		cfg.Project.CloudID = cloudID
	}
	if limit := os.Getenv("REFINE_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			cfg.Project.RateLimit = n
		}
	}
	if team := os.Getenv("TEMPO_TEAM_NAME"); team != "" {
		cfg.Tempo.TeamName = team
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Review.OpenAIModel = model
	}

	km := NewKeyringManager()

	cfg.Project.APIToken = os.Getenv("JIRA_API_TOKEN")
	if cfg.Project.APIToken == "" && km.IsAvailable() {
		cfg.Project.APIToken, _ = km.GetSecret(KeyringJiraTokenItem)
	}

	cfg.Tempo.APIToken = os.Getenv("TEMPO_API_TOKEN")
	if cfg.Tempo.APIToken == "" && km.IsAvailable() {
		cfg.Tempo.APIToken, _ = km.GetSecret(KeyringTempoTokenItem)
	}

	cfg.Review.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Review.OpenAIKey == "" && km.IsAvailable() {
		cfg.Review.OpenAIKey, _ = km.GetSecret(KeyringOpenAIKeyItem)
	}
}
