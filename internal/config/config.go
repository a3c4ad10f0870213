package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultConfigPath = ".deploywrap.toml"
const envOverride = "DEPLOYWRAP_CONFIG"

// Environment variables read at load time.
const (
	envGitHubToken = "GITHUB_TOKEN"
	envPRNumber    = "DEPLOYWRAP_PR_NUMBER"
)

type Config struct {
	SF       SFConfig       `toml:"sf"`
	Coverage CoverageConfig `toml:"coverage"`
	Tips     TipsConfig     `toml:"tips"`
	State    StateConfig    `toml:"state"`
	GitHub   GitHubConfig   `toml:"github"`
}

type SFConfig struct {
	DeployCommand   string `toml:"deploy_command"`
	ValidateCommand string `toml:"validate_command"`
}

type CoverageConfig struct {
	InputDir   string  `toml:"input_dir"`
	OutputFile string  `toml:"output_file"`
	MinPercent float64 `toml:"min_percent"`
}

type TipsConfig struct {
	RulesFile string `toml:"rules_file"`
}

type StateConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type GitHubConfig struct {
	Token    string `toml:"token"`
	Owner    string `toml:"owner"`
	Repo     string `toml:"repo"`
	PRNumber int    `toml:"pr_number"`
	BaseURL  string `toml:"base_url"`
}

// Enabled reports whether enough is configured to comment on a pull request.
func (g GitHubConfig) Enabled() bool {
	return g.Token != "" && g.Owner != "" && g.Repo != "" && g.PRNumber > 0
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	if p := os.Getenv(envOverride); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads configuration from the given path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// Apply defaults
	if cfg.SF.DeployCommand == "" {
		cfg.SF.DeployCommand = "sf project deploy start"
	}
	if cfg.SF.ValidateCommand == "" {
		cfg.SF.ValidateCommand = "sf project deploy validate"
	}
	if cfg.Coverage.InputDir == "" {
		cfg.Coverage.InputDir = "coverage"
	}
	if cfg.Coverage.OutputFile == "" {
		cfg.Coverage.OutputFile = "hardis-report/apex-coverage-results.json"
	}
	if cfg.Coverage.MinPercent == 0 {
		cfg.Coverage.MinPercent = 75
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = "sqlite"
	}
	if cfg.State.DSN == "" && cfg.State.Driver == "sqlite" {
		cfg.State.DSN = ".deploywrap/state.db"
	}

	// Environment overrides
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv(envGitHubToken)
	}
	if v := os.Getenv(envPRNumber); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s=%q: %w", envPRNumber, v, err)
		}
		cfg.GitHub.PRNumber = n
	}

	// Validate
	if cfg.State.Driver != "sqlite" && cfg.State.Driver != "mysql" {
		return nil, fmt.Errorf("config: state.driver must be \"sqlite\" or \"mysql\", got %q", cfg.State.Driver)
	}
	if cfg.State.DSN == "" {
		return nil, fmt.Errorf("config: state.dsn is required for driver %s", cfg.State.Driver)
	}
	if cfg.Coverage.MinPercent < 0 || cfg.Coverage.MinPercent > 100 {
		return nil, fmt.Errorf("config: coverage.min_percent must be between 0 and 100, got %v", cfg.Coverage.MinPercent)
	}

	return &cfg, nil
}

// TemplateConfig returns a TOML template with default values for first-time setup.
func TemplateConfig() string {
	return `[sf]
deploy_command   = "sf project deploy start"
validate_command = "sf project deploy validate"

[coverage]
input_dir   = "coverage"
output_file = "hardis-report/apex-coverage-results.json"
min_percent = 75

[tips]
# rules_file = "config/deploy-tips.yaml"

[state]
driver = "sqlite"
dsn    = ".deploywrap/state.db"

[github]
# token is read from GITHUB_TOKEN when unset
owner     = ""
repo      = ""
pr_number = 0
`
}
