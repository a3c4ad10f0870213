package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecairns22/deploywrap/internal/config"
	"github.com/ecairns22/deploywrap/internal/coverage"
	"github.com/ecairns22/deploywrap/internal/deploytips"
	ghclient "github.com/ecairns22/deploywrap/internal/github"
	"github.com/ecairns22/deploywrap/internal/logging"
	"github.com/ecairns22/deploywrap/internal/runner"
	"github.com/ecairns22/deploywrap/internal/state"
	"github.com/ecairns22/deploywrap/internal/wrap"
)

// Overridden in tests.
var (
	newRunner = func() runner.CommandRunner { return &runner.OSRunner{} }
	newLogger = logging.New
)

// ExitError asks main to exit with Code without printing anything more.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// buildWrapper loads config and constructs the wrapper with its collaborators.
// The caller is responsible for calling the returned cleanup function.
func buildWrapper(cmd *cobra.Command, debug bool) (*wrap.Wrapper, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := newLogger(debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	catalog, err := deploytips.LoadCatalog(cfg.Tips.RulesFile)
	if err != nil {
		log.Sync()
		return nil, nil, nil, fmt.Errorf("loading deploy tips: %w", err)
	}

	// Run history is best effort: a broken state db must not block a deployment.
	var recorder wrap.Recorder
	store, err := state.Open(cfg.State.Driver, cfg.State.DSN)
	if err != nil {
		log.Warn("run history disabled", zap.Error(err))
	} else {
		recorder = store
	}

	var notifier wrap.Notifier
	if cfg.GitHub.Enabled() {
		gh, err := ghclient.New(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.BaseURL)
		if err != nil {
			log.Warn("pull request comments disabled", zap.Error(err))
		} else {
			notifier = &ghclient.PRNotifier{Client: gh, PR: cfg.GitHub.PRNumber}
		}
	}

	console := logging.NewConsole(cmd.OutOrStdout())
	gen := coverage.NewGenerator(cfg.Coverage.InputDir, cfg.Coverage.OutputFile)

	w := wrap.New(newRunner(), deploytips.New(catalog), gen, recorder, notifier, log, console)
	w.MinCoverage = cfg.Coverage.MinPercent

	cleanup := func() {
		if store != nil {
			store.Close()
		}
		log.Sync()
	}

	return w, cfg, cleanup, nil
}

// runWrapped runs base with the raw args and maps a non-zero status to *ExitError.
func runWrapped(cmd *cobra.Command, base func(*config.Config) string, args []string, checkOnly bool) error {
	debug := wrap.DebugRequested(args)

	w, cfg, cleanup, err := buildWrapper(cmd, debug)
	if err != nil {
		return err
	}
	defer cleanup()
	w.CheckOnly = checkOnly

	res := w.Run(cmd.Context(), base(cfg), args, debug)
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}

// buildStateOnly opens just the history store (for read-only commands like history).
func buildStateOnly() (*state.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return state.Open(cfg.State.Driver, cfg.State.DSN)
}
