package wrap

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecairns22/deploywrap/internal/coverage"
	"github.com/ecairns22/deploywrap/internal/deploytips"
	"github.com/ecairns22/deploywrap/internal/logging"
	"github.com/ecairns22/deploywrap/internal/runner"
	"github.com/ecairns22/deploywrap/internal/state"
)

const failureHeadline = "Sadly there has been error(s)"

// Analyzer turns combined command output into a readable error report.
type Analyzer interface {
	Analyze(log string, verbose bool, opts deploytips.Options) deploytips.Report
}

// CoverageGenerator writes the coverage artifact after a run.
type CoverageGenerator interface {
	Generate(ctx context.Context) (*coverage.Summary, error)
}

// Recorder stores finished invocations.
type Recorder interface {
	RecordInvocation(ctx context.Context, inv *state.Invocation) error
}

// Notifier publishes failure reports, e.g. as a pull request comment.
type Notifier interface {
	NotifyFailure(ctx context.Context, title, report string) error
}

// CommandOutput is what a successful run produced.
type CommandOutput struct {
	Status int    `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Result is returned by Run. ExitCode is the status the process should exit with.
type Result struct {
	OutputString string
	ExitCode     int
	InvocationID string
	Invocation   Invocation
	Output       *CommandOutput     // set on success
	Report       *deploytips.Report // set on failure
	Coverage     *coverage.Summary  // nil when no coverage report was found
}

// Wrapper runs wrapped commands.
type Wrapper struct {
	runner   runner.CommandRunner
	analyzer Analyzer
	coverage CoverageGenerator
	recorder Recorder
	notifier Notifier
	log      *zap.Logger
	console  *logging.Console

	// MinCoverage is the threshold applied when --checkcoverage is passed.
	MinCoverage float64
	// CheckOnly reports every run as a validation, whatever its arguments.
	CheckOnly bool

	newID func() string
	now   func() time.Time
}

// New creates a Wrapper. recorder and notifier may be nil.
func New(r runner.CommandRunner, a Analyzer, cov CoverageGenerator, recorder Recorder, notifier Notifier, log *zap.Logger, console *logging.Console) *Wrapper {
	return &Wrapper{
		runner:      r,
		analyzer:    a,
		coverage:    cov,
		recorder:    recorder,
		notifier:    notifier,
		log:         log,
		console:     console,
		MinCoverage: 75,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Run normalizes args, runs base with them and blocks until the process exits.
// Failures of the wrapped command are reported through the console and the
// returned Result; they are never returned as errors.
func (w *Wrapper) Run(ctx context.Context, base string, args []string, debug bool) *Result {
	inv := Normalize(base, args)
	res := &Result{InvocationID: w.newID(), Invocation: inv}
	log := w.log.With(zap.String("invocation", res.InvocationID))

	started := w.now()
	log.Info("running wrapped command", zap.String("command", inv.Command))
	w.console.Info("[deploywrap] %s", inv.Command)

	stdout, stderr, err := runner.Shell(ctx, w.runner, inv.Command)
	if debug {
		log.Debug("wrapped command output", zap.String("stdout", stdout), zap.String("stderr", stderr))
	}

	res.Coverage = w.generateCoverage(ctx, log)

	if err == nil {
		w.succeeded(res, stdout, stderr)
		if CoverageCheckRequested(args) {
			w.checkCoverage(res, log)
		}
	} else {
		w.failed(ctx, res, err, stdout, stderr, log)
	}

	duration := w.now().Sub(started)
	log.Info("wrapped command finished", zap.Int("exit_code", res.ExitCode), zap.Duration("duration", duration))
	w.record(ctx, res, started, duration, log)
	return res
}

func (w *Wrapper) succeeded(res *Result, stdout, stderr string) {
	res.ExitCode = 0
	out := &CommandOutput{Status: 0, Stdout: stdout, Stderr: stderr}
	if stdout != "" {
		w.console.Info("%s", stdout)
	}

	// Callers read the whole captured result from the stdout field.
	data, err := json.Marshal(out)
	if err != nil {
		w.log.Warn("serializing command output", zap.Error(err))
		res.Output = out
		res.OutputString = stdout
		return
	}
	out.Stdout = string(data)
	res.Output = out
	res.OutputString = string(data)
}

func (w *Wrapper) failed(ctx context.Context, res *Result, err error, stdout, stderr string, log *zap.Logger) {
	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) {
		stdout, stderr = cmdErr.Stdout, cmdErr.Stderr
	}

	opts := deploytips.Options{Check: w.checkOnly(res.Invocation)}
	report := w.analyzer.Analyze(stdout+stderr, true, opts)
	res.Report = &report
	res.OutputString = report.ErrLog

	w.console.Failure(failureHeadline)
	w.console.ErrorReport(report.ErrLog)

	if code, ok := runner.ExitCode(err); ok {
		res.ExitCode = code
	} else {
		res.ExitCode = 1
	}
	log.Warn("wrapped command failed", zap.Error(err), zap.Int("tips", len(report.Tips)))

	if w.notifier != nil {
		title := "Deployment failed"
		if opts.Check {
			title = "Deployment simulation failed"
		}
		if err := w.notifier.NotifyFailure(ctx, title, report.ErrLog); err != nil {
			log.Warn("publishing failure report", zap.Error(err))
		}
	}
}

// generateCoverage runs exactly once per invocation. Errors are logged only.
func (w *Wrapper) generateCoverage(ctx context.Context, log *zap.Logger) *coverage.Summary {
	summary, err := w.coverage.Generate(ctx)
	if err != nil {
		log.Warn("generating coverage output", zap.Error(err))
		return nil
	}
	if summary != nil {
		log.Debug("coverage output generated", zap.Float64("coverage", summary.Coverage))
	}
	return summary
}

func (w *Wrapper) checkCoverage(res *Result, log *zap.Logger) {
	if res.Coverage == nil {
		w.console.Warn("Coverage check requested but no coverage report was produced")
		return
	}
	if res.Coverage.Coverage < w.MinCoverage {
		w.console.Warn("Apex coverage %.2f%% is below the required %.2f%%", res.Coverage.Coverage, w.MinCoverage)
		log.Warn("coverage below minimum", zap.Float64("coverage", res.Coverage.Coverage), zap.Float64("min", w.MinCoverage))
		res.ExitCode = 1
		return
	}
	w.console.Success("Apex coverage %.2f%% meets the required %.2f%%", res.Coverage.Coverage, w.MinCoverage)
}

func (w *Wrapper) record(ctx context.Context, res *Result, started time.Time, duration time.Duration, log *zap.Logger) {
	if w.recorder == nil {
		return
	}
	entry := &state.Invocation{
		ID:        res.InvocationID,
		Base:      res.Invocation.Base,
		Command:   res.Invocation.Command,
		CheckOnly: w.checkOnly(res.Invocation),
		ExitCode:  res.ExitCode,
		StartedAt: started,
		Duration:  duration,
	}
	if res.Coverage != nil {
		v := res.Coverage.Coverage
		entry.Coverage = &v
	}
	if res.Report != nil {
		entry.Tips = len(res.Report.Tips)
	}
	if err := w.recorder.RecordInvocation(ctx, entry); err != nil {
		log.Warn("recording invocation", zap.Error(err))
	}
}

func (w *Wrapper) checkOnly(inv Invocation) bool {
	return w.CheckOnly || inv.CheckOnly()
}
