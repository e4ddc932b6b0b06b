package scenarios

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Monitor runs the suite on a cron schedule until stopped
type Monitor struct {
	runner *Runner
	names  []string
	cron   *cron.Cron
	logger arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	busy   sync.Mutex
	onRun  func(*Summary)
}

// NewMonitor creates a monitor. schedule uses the six-field cron format (seconds first).
// onRun, when set, receives every completed run.
func NewMonitor(runner *Runner, names []string, logger arbor.ILogger, onRun func(*Summary)) (*Monitor, error) {
	if _, err := Select(names); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		runner: runner,
		names:  names,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		onRun:  onRun,
	}, nil
}

// Start registers the schedule and begins running
func (m *Monitor) Start(schedule string) error {
	_, err := m.cron.AddFunc(schedule, m.runScheduled)
	if err != nil {
		return err
	}

	m.cron.Start()
	m.logger.Info().
		Str("schedule", schedule).
		Strs("scenarios", m.names).
		Msg("Suite monitor started")
	return nil
}

// Stop cancels any run in progress and waits for it to finish
func (m *Monitor) Stop() {
	m.cancel()
	<-m.cron.Stop().Done()

	// RunNow calls are not tracked by cron
	m.busy.Lock()
	m.busy.Unlock()

	m.logger.Info().Msg("Suite monitor stopped")
}

// RunNow triggers a run outside the schedule and waits for it
func (m *Monitor) RunNow() {
	m.runScheduled()
}

func (m *Monitor) runScheduled() {
	// A slow run must not overlap the next tick
	if !m.busy.TryLock() {
		m.logger.Warn().Msg("Previous suite run still in progress, skipping this tick")
		return
	}
	defer m.busy.Unlock()

	if m.ctx.Err() != nil {
		return
	}

	summary, err := m.runner.Run(m.ctx, m.names)
	if err != nil {
		m.logger.Error().Err(err).Msg("Scheduled suite run failed")
		return
	}
	if !summary.AllPassed() {
		m.logger.Warn().
			Str("run_id", summary.RunID).
			Int("failed", summary.Failed()).
			Msg("Scheduled suite run has failures")
	}
	if m.onRun != nil {
		m.onRun(summary)
	}
}
