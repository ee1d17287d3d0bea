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

// LiveState copies per-camera activity from host statistics.
// It is the only writer of Camera.State.
type LiveState struct {
	repo        store.Repository
	client      RemoteClient
	logger      logger.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewLiveState creates the live-state cycle.
func NewLiveState(repo store.Repository, client RemoteClient, log logger.Logger, m *metrics.Metrics, concurrency int) *LiveState {
	return &LiveState{
		repo:        repo,
		client:      client,
		logger:      log.With(logger.String("loop", LoopLiveState)),
		metrics:     m,
		concurrency: concurrency,
	}
}

// Cycle polls every registered host once. Changes counts patched cameras.
func (ls *LiveState) Cycle(ctx context.Context) (Report, error) {
	hosts, err := ls.repo.ListHosts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list hosts: %w", err)
	}

	report := fanOut(ctx, hosts, ls.concurrency, ls.logger, ls.poll)

	fields := []logger.Field{
		logger.Int("hosts", report.Hosts),
		logger.Int("polled", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Int("skipped", report.Skipped),
		logger.Int("patched", report.Patched),
		logger.Int("op_errors", report.OpErrors),
	}
	if report.Patched+report.Failed+report.OpErrors > 0 {
		ls.logger.Info("live-state cycle completed", fields...)
	} else {
		ls.logger.Debug("live-state cycle completed, nothing to do", fields...)
	}
	return report, nil
}

func (ls *LiveState) poll(ctx context.Context, host domain.Host) Report {
	out := Report{Hosts: 1}
	log := ls.logger.With(logger.String("host", host.Name), logger.String("host_id", host.ID))

	stats, err := ls.client.FetchStats(ctx, host)
	if errors.Is(err, remote.ErrHostDisabled) {
		out.Skipped = 1
		return out
	}
	if err != nil {
		// Keep the last known states rather than flapping to unknown.
		out.Failed = 1
		log.Warn("stats fetch failed, keeping camera states", logger.Error(err))
		return out
	}

	current, err := ls.repo.GetHostWithCameras(ctx, host.ID)
	if err != nil {
		out.Failed = 1
		log.Warn("failed to load local cameras, skipping host", logger.Error(err))
		return out
	}
	out.Succeeded = 1

	activity := stats.Activity()
	for _, cam := range current.Cameras {
		active, ok := activity[cam.Name]
		if !ok {
			continue
		}
		state := domain.FromBool(active)
		if cam.State == state {
			continue
		}

		err := ls.repo.UpdateCameraState(ctx, host.ID, cam.ID, state)
		ls.metrics.CameraOp(OpState, err)
		if err != nil {
			out.OpErrors++
			log.Error("failed to update camera state",
				logger.String("camera", cam.Name),
				logger.Error(err))
			continue
		}
		out.Patched++
		log.Debug("camera state changed",
			logger.String("camera", cam.Name),
			logger.String("from", cam.State.String()),
			logger.String("to", state.String()))
	}

	out.Changes = out.Patched
	return out
}
