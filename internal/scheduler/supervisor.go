package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/metrics"
	"github.com/MrSnakeDoc/nvrsync/internal/remote"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Loop names.
const (
	LoopLiveness  = "liveness"
	LoopInventory = "inventory"
	LoopLiveState = "livestate"
)

const (
	DefaultLivenessInterval      = 20 * time.Second
	DefaultInventoryFastInterval = 60 * time.Second
	DefaultInventorySlowInterval = 10 * time.Minute
	DefaultStateFastInterval     = 60 * time.Second
	DefaultStateSlowInterval     = 5 * time.Minute
	DefaultMaxConcurrency        = 8
)

// ErrUnknownLoop is returned by Trigger for a name that is not a loop.
var ErrUnknownLoop = errors.New("unknown loop")

// RemoteClient is the part of remote.Client the loops use.
type RemoteClient interface {
	FetchStatus(ctx context.Context, host domain.Host) (bool, error)
	FetchConfig(ctx context.Context, host domain.Host) (*remote.ConfigPayload, error)
	FetchStats(ctx context.Context, host domain.Host) (*remote.StatsPayload, error)
}

// Options tunes the loop cadences. Zero values use the defaults.
type Options struct {
	LivenessInterval      time.Duration
	InventoryFastInterval time.Duration
	InventorySlowInterval time.Duration
	StateFastInterval     time.Duration
	StateSlowInterval     time.Duration
	MaxConcurrency        int // hosts handled in parallel within one cycle
}

func (o *Options) applyDefaults() {
	setDuration := func(d *time.Duration, def time.Duration) {
		if *d <= 0 {
			*d = def
		}
	}
	setDuration(&o.LivenessInterval, DefaultLivenessInterval)
	setDuration(&o.InventoryFastInterval, DefaultInventoryFastInterval)
	setDuration(&o.InventorySlowInterval, DefaultInventorySlowInterval)
	setDuration(&o.StateFastInterval, DefaultStateFastInterval)
	setDuration(&o.StateSlowInterval, DefaultStateSlowInterval)
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
}

// Supervisor owns the liveness, inventory and live-state loops. They
// share one repository and one remote client and never call each other.
type Supervisor struct {
	loops  []*Loop
	byName map[string]*Loop
	logger logger.Logger

	once sync.Once
	wg   sync.WaitGroup
}

// NewSupervisor wires the three loops.
func NewSupervisor(repo store.Repository, client RemoteClient, opts Options, log logger.Logger, m *metrics.Metrics) *Supervisor {
	opts.applyDefaults()

	liveness := NewLiveness(repo, client, log, m, opts.MaxConcurrency)
	inventory := NewInventory(repo, client, log, m, opts.MaxConcurrency)
	liveState := NewLiveState(repo, client, log, m, opts.MaxConcurrency)

	s := &Supervisor{
		loops: []*Loop{
			NewLoop(LoopLiveness, FixedCadence{Interval: opts.LivenessInterval}, liveness.Cycle, log, m),
			NewLoop(LoopInventory, NewAdaptiveCadence(opts.InventoryFastInterval, opts.InventorySlowInterval), inventory.Cycle, log, m),
			NewLoop(LoopLiveState, NewAdaptiveCadence(opts.StateFastInterval, opts.StateSlowInterval), liveState.Cycle, log, m),
		},
		byName: make(map[string]*Loop, 3),
		logger: log,
	}
	for _, l := range s.loops {
		s.byName[l.Name()] = l
	}
	return s
}

// Start launches every loop once; later calls do nothing. The loops run
// until ctx is cancelled.
func (s *Supervisor) Start(ctx context.Context) {
	s.once.Do(func() {
		for _, l := range s.loops {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				l.Run(ctx)
			}()
		}
		s.logger.Info("reconciliation loops started", logger.Int("loops", len(s.loops)))
	})
}

// Wait blocks until every started loop has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Trigger asks one loop, or every loop when name is empty, to run now.
func (s *Supervisor) Trigger(name string) error {
	if name == "" {
		for _, l := range s.loops {
			l.Trigger()
		}
		return nil
	}
	l, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLoop, name)
	}
	l.Trigger()
	return nil
}

// Snapshots returns the state of every loop in start order.
func (s *Supervisor) Snapshots() []Snapshot {
	out := make([]Snapshot, len(s.loops))
	for i, l := range s.loops {
		out[i] = l.Snapshot()
	}
	return out
}
