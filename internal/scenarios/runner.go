package scenarios

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/common"
	"github.com/ternarybob/guvitest/internal/session"
)

// teardownTimeout bounds browser shutdown after each scenario
const teardownTimeout = 30 * time.Second

// Result is the outcome of one scenario
type Result struct {
	Name      string
	Passed    bool
	Err       error
	Duration  time.Duration
	Artifacts []string
}

// Summary is the outcome of one suite run
type Summary struct {
	RunID       string
	Dir         string
	StartedAt   time.Time
	Duration    time.Duration
	Results     []Result
	Interrupted bool
}

// Passed returns the number of passing scenarios
func (s *Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing scenarios
func (s *Summary) Failed() int {
	return len(s.Results) - s.Passed()
}

// AllPassed reports whether every selected scenario ran and passed
func (s *Summary) AllPassed() bool {
	return !s.Interrupted && s.Failed() == 0
}

// Runner executes scenarios, each in its own browser session
type Runner struct {
	launcher browser.Launcher
	config   *common.Config
	logger   arbor.ILogger
	now      func() time.Time
}

// NewRunner creates a runner that launches browsers with launcher
func NewRunner(launcher browser.Launcher, config *common.Config, logger arbor.ILogger) *Runner {
	return &Runner{
		launcher: launcher,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes the named scenarios (all of them when names is empty) and writes the run summary
func (r *Runner) Run(ctx context.Context, names []string) (*Summary, error) {
	selected, err := Select(names)
	if err != nil {
		return nil, err
	}
	return r.RunScenarios(ctx, selected), nil
}

// RunScenarios executes list sequentially. A cancelled ctx stops the run between scenarios.
func (r *Runner) RunScenarios(ctx context.Context, list []Scenario) *Summary {
	started := r.now()
	runID := common.NewRunID(started)
	summary := &Summary{
		RunID:     runID,
		Dir:       filepath.Join(r.config.Output.ResultsDir, runID),
		StartedAt: started,
	}

	r.logger.Info().
		Str("run_id", runID).
		Int("scenarios", len(list)).
		Msg("Suite run started")

	for _, sc := range list {
		if ctx.Err() != nil {
			summary.Interrupted = true
			r.logger.Warn().Str("next", sc.Name).Msg("Suite run interrupted")
			break
		}
		summary.Results = append(summary.Results, r.runOne(ctx, summary.Dir, sc))
	}

	summary.Duration = time.Since(started)

	if path, err := writeSummary(summary); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to write run summary")
	} else {
		r.logger.Debug().Str("path", path).Msg("Run summary written")
	}

	r.logger.Info().
		Str("run_id", runID).
		Int("passed", summary.Passed()).
		Int("failed", summary.Failed()).
		Dur("duration", summary.Duration).
		Msg("Suite run finished")

	return summary
}

func (r *Runner) runOne(ctx context.Context, runDir string, sc Scenario) (result Result) {
	result.Name = sc.Name
	start := time.Now()
	logger := r.logger.WithCorrelationId(sc.Name)

	s := session.New(r.launcher, logger)
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		if err := s.Teardown(teardownCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to tear down session")
		}
		result.Duration = time.Since(start)
		r.logResult(result)
	}()

	if err := s.Setup(ctx); err != nil {
		result.Err = err
		return result
	}

	result.Err = r.execute(ctx, sc, &Env{Session: s, Config: r.config, Logger: logger})
	result.Passed = result.Err == nil

	if !result.Passed {
		result.Artifacts = captureFailure(ctx, s.Driver(), filepath.Join(runDir, sc.Name), r.config.Output, logger)
	}
	return result
}

// execute runs sc, turning a panic into a failure so the remaining scenarios still run
func (r *Runner) execute(ctx context.Context, sc Scenario, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			env.Logger.Error().
				Str("panic", fmt.Sprintf("%v", p)).
				Str("stack", common.GetStackTrace()).
				Msg("Scenario panicked")
			err = fmt.Errorf("scenario panicked: %v", p)
		}
	}()
	return sc.Run(ctx, env)
}

func (r *Runner) logResult(result Result) {
	if result.Passed {
		r.logger.Info().
			Str("scenario", result.Name).
			Dur("duration", result.Duration).
			Msg("PASS")
		return
	}
	r.logger.Error().
		Err(result.Err).
		Str("scenario", result.Name).
		Dur("duration", result.Duration).
		Strs("artifacts", result.Artifacts).
		Msg("FAIL")
}
