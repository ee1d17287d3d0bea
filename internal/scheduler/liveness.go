package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/metrics"
	"github.com/MrSnakeDoc/nvrsync/internal/remote"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Liveness probes every enabled host and records its availability.
// It is the only writer of Host.Available.
type Liveness struct {
	repo        store.Repository
	client      RemoteClient
	logger      logger.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewLiveness creates the liveness cycle.
func NewLiveness(repo store.Repository, client RemoteClient, log logger.Logger, m *metrics.Metrics, concurrency int) *Liveness {
	return &Liveness{
		repo:        repo,
		client:      client,
		logger:      log.With(logger.String("loop", LoopLiveness)),
		metrics:     m,
		concurrency: concurrency,
	}
}

// Cycle probes all enabled hosts once.
func (l *Liveness) Cycle(ctx context.Context) (Report, error) {
	hosts, err := l.repo.ListEnabledHosts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list enabled hosts: %w", err)
	}

	report := fanOut(ctx, hosts, l.concurrency, l.logger, l.probe)

	l.logger.Info("liveness cycle completed",
		logger.Int("hosts", report.Hosts),
		logger.Int("available", report.Succeeded),
		logger.Int("unavailable", report.Failed))
	return report, nil
}

func (l *Liveness) probe(ctx context.Context, host domain.Host) Report {
	out := Report{Hosts: 1}
	log := l.logger.With(logger.String("host", host.Name), logger.String("host_id", host.ID))

	ok, err := l.client.FetchStatus(ctx, host)
	if errors.Is(err, remote.ErrHostDisabled) {
		out.Skipped = 1
		return out
	}

	available := domain.FromBool(ok && err == nil)
	if err != nil {
		out.Failed = 1
		log.Warn("host status check failed", logger.Error(err))
	} else {
		out.Succeeded = 1
	}

	if err := l.repo.UpdateHostAvailability(ctx, host.ID, available); err != nil {
		out.OpErrors = 1
		log.Error("failed to record host availability",
			logger.String("available", available.String()),
			logger.Error(err))
	}
	return out
}
