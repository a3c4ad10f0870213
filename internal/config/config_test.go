package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "deploywrap.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `[sf]
deploy_command   = "sfdx force:source:deploy"
validate_command = "sfdx force:source:deploy --checkonly"

[coverage]
input_dir   = "out/coverage"
output_file = "out/summary.json"
min_percent = 80

[tips]
rules_file = "tips.yaml"

[state]
driver = "mysql"
dsn    = "user:pass@tcp(127.0.0.1:3306)/deploywrap"

[github]
token     = "ghp_testtoken123"
owner     = "acme"
repo      = "crm"
pr_number = 12
`

func TestLoadValidConfig(t *testing.T) {
	t.Setenv(envPRNumber, "")
	path := writeTestConfig(t, t.TempDir(), validConfig)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SF.DeployCommand != "sfdx force:source:deploy" {
		t.Errorf("deploy_command = %q", cfg.SF.DeployCommand)
	}
	if cfg.Coverage.MinPercent != 80 {
		t.Errorf("min_percent = %v, want 80", cfg.Coverage.MinPercent)
	}
	if cfg.State.Driver != "mysql" {
		t.Errorf("driver = %q, want mysql", cfg.State.Driver)
	}
	if cfg.Tips.RulesFile != "tips.yaml" {
		t.Errorf("rules_file = %q", cfg.Tips.RulesFile)
	}
	if !cfg.GitHub.Enabled() {
		t.Error("github should be enabled")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(envGitHubToken, "")
	t.Setenv(envPRNumber, "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SF.DeployCommand != "sf project deploy start" {
		t.Errorf("default deploy_command = %q", cfg.SF.DeployCommand)
	}
	if cfg.SF.ValidateCommand != "sf project deploy validate" {
		t.Errorf("default validate_command = %q", cfg.SF.ValidateCommand)
	}
	if cfg.Coverage.MinPercent != 75 {
		t.Errorf("default min_percent = %v, want 75", cfg.Coverage.MinPercent)
	}
	if cfg.State.Driver != "sqlite" || cfg.State.DSN != ".deploywrap/state.db" {
		t.Errorf("default state = %+v", cfg.State)
	}
	if cfg.GitHub.Enabled() {
		t.Error("github should be disabled by default")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "[sf\ndeploy_command = ")
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path, got: %v", err)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "[state]\ndriver = \"postgres\"\ndsn = \"x\"\n")
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "state.driver") {
		t.Errorf("error should mention state.driver, got: %v", err)
	}
}

func TestLoadMySQLRequiresDSN(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "[state]\ndriver = \"mysql\"\n")
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for missing dsn")
	}
	if !strings.Contains(err.Error(), "state.dsn") {
		t.Errorf("error should mention state.dsn, got: %v", err)
	}
}

func TestLoadRejectsBadMinPercent(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "[coverage]\nmin_percent = 120\n")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for min_percent > 100")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envGitHubToken, "ghp_fromenv")
	t.Setenv(envPRNumber, "42")
	path := writeTestConfig(t, t.TempDir(), "[github]\nowner = \"acme\"\nrepo = \"crm\"\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHub.Token != "ghp_fromenv" {
		t.Errorf("token = %q, want ghp_fromenv", cfg.GitHub.Token)
	}
	if cfg.GitHub.PRNumber != 42 {
		t.Errorf("pr_number = %d, want 42", cfg.GitHub.PRNumber)
	}
	if !cfg.GitHub.Enabled() {
		t.Error("github should be enabled from env")
	}
}

func TestBadPRNumberEnv(t *testing.T) {
	t.Setenv(envPRNumber, "abc")
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for non-numeric PR number")
	}
}

func TestTemplateConfigParses(t *testing.T) {
	t.Setenv(envPRNumber, "")
	path := writeTestConfig(t, t.TempDir(), TemplateConfig())
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("template should load: %v", err)
	}
	if cfg.Coverage.OutputFile != "hardis-report/apex-coverage-results.json" {
		t.Errorf("output_file = %q", cfg.Coverage.OutputFile)
	}
}

func TestConfigPathOverride(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), validConfig)
	t.Setenv(envOverride, path)
	t.Setenv(envPRNumber, "")

	if got := DefaultPath(); got != path {
		t.Errorf("DefaultPath() = %q, want %q", got, path)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHub.Owner != "acme" {
		t.Errorf("owner = %q, want acme", cfg.GitHub.Owner)
	}
}
