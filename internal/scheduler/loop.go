package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/metrics"
)

// Report summarises one cycle. Per-host results use the same shape with
// Hosts == 1 and are summed by add.
type Report struct {
	Hosts     int `json:"hosts"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`  // fetch or read failed, host skipped
	Skipped   int `json:"skipped"` // disabled
	Created   int `json:"created,omitempty"`
	Updated   int `json:"updated,omitempty"`
	Deleted   int `json:"deleted,omitempty"`
	Patched   int `json:"patched,omitempty"`
	OpErrors  int `json:"op_errors,omitempty"`
	// Changes drives the adaptive cadence; each loop decides what counts.
	Changes int `json:"changes"`
}

func (r *Report) add(o Report) {
	r.Hosts += o.Hosts
	r.Succeeded += o.Succeeded
	r.Failed += o.Failed
	r.Skipped += o.Skipped
	r.Created += o.Created
	r.Updated += o.Updated
	r.Deleted += o.Deleted
	r.Patched += o.Patched
	r.OpErrors += o.OpErrors
	r.Changes += o.Changes
}

// CycleFunc performs one pass over the fleet. A returned error is a
// top-level failure; per-host problems belong in the Report.
type CycleFunc func(ctx context.Context) (Report, error)

// Snapshot is a point-in-time view of a loop, served by the infra endpoint.
type Snapshot struct {
	Name         string        `json:"name"`
	Running      bool          `json:"running"`
	Cycles       int           `json:"cycles"`
	OverlapSkips int           `json:"overlap_skips"`
	LastStart    time.Time     `json:"last_start,omitzero"`
	LastFinish   time.Time     `json:"last_finish,omitzero"`
	LastReport   Report        `json:"last_report"`
	LastError    string        `json:"last_error,omitempty"`
	NextDelay    time.Duration `json:"next_delay"`
}

// Loop runs a CycleFunc forever: one guarded cycle, then a cadence delay
// measured from the cycle's completion, so a slow cycle self-throttles.
type Loop struct {
	name    string
	guard   Guard
	cadence Cadence
	cycle   CycleFunc
	trigger chan struct{}
	logger  logger.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	snap Snapshot
}

// NewLoop creates a loop; call Run to start it.
func NewLoop(name string, cadence Cadence, cycle CycleFunc, log logger.Logger, m *metrics.Metrics) *Loop {
	return &Loop{
		name:    name,
		cadence: cadence,
		cycle:   cycle,
		trigger: make(chan struct{}, 1),
		logger:  log.With(logger.String("loop", name)),
		metrics: m,
		snap:    Snapshot{Name: name},
	}
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// Run executes cycles until ctx is done. It never returns early on a
// cycle error.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("loop started")
	for {
		ran, report, err := l.RunOnce(ctx)

		delay := l.Snapshot().NextDelay
		if ran || delay <= 0 {
			delay = l.cadence.Next(report.Changes, err)
		}
		l.setNextDelay(delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-l.trigger:
			timer.Stop()
			l.logger.Info("manual cycle triggered")
		case <-ctx.Done():
			timer.Stop()
			l.logger.Info("loop stopped")
			return
		}
	}
}

// RunOnce performs a single guarded cycle. If a cycle is already in
// progress it does nothing and returns ran == false. A panic inside the
// cycle is recovered and returned as a top-level error.
func (l *Loop) RunOnce(ctx context.Context) (ran bool, report Report, err error) {
	ran, err = l.guard.TryRun(func() (cycleErr error) {
		start := time.Now()
		l.update(func(s *Snapshot) {
			s.Running = true
			s.LastStart = start
		})

		defer func() {
			if r := recover(); r != nil {
				cycleErr = fmt.Errorf("panic in %s cycle: %v", l.name, r)
			}
			l.finish(start, report, cycleErr)
		}()

		report, cycleErr = l.cycle(ctx)
		return cycleErr
	})

	if !ran {
		l.update(func(s *Snapshot) { s.OverlapSkips++ })
		l.metrics.OverlapSkip(l.name)
		l.logger.Warn("previous cycle still running, skipping")
	}
	return ran, report, err
}

func (l *Loop) finish(start time.Time, report Report, err error) {
	elapsed := time.Since(start)
	l.metrics.ObserveCycle(l.name, elapsed, err)
	l.metrics.HostFailures(l.name, report.Failed)

	l.update(func(s *Snapshot) {
		s.Running = false
		s.Cycles++
		s.LastFinish = time.Now()
		s.LastReport = report
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
	})

	if err != nil {
		l.logger.Error("cycle failed",
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	}
}

// Trigger requests an immediate cycle. It never blocks and returns false
// when a request is already pending.
func (l *Loop) Trigger() bool {
	select {
	case l.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Snapshot returns the current loop state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

func (l *Loop) setNextDelay(d time.Duration) {
	l.update(func(s *Snapshot) { s.NextDelay = d })
	l.metrics.NextDelay(l.name, d)
}

func (l *Loop) update(fn func(*Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.snap)
}
