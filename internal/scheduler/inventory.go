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

// Camera operation labels.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpState  = "state"
)

// Inventory mirrors each host's camera configuration into the store.
// It is the only writer of camera existence and Camera.Config.
type Inventory struct {
	repo        store.Repository
	client      RemoteClient
	logger      logger.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewInventory creates the inventory cycle.
func NewInventory(repo store.Repository, client RemoteClient, log logger.Logger, m *metrics.Metrics, concurrency int) *Inventory {
	return &Inventory{
		repo:        repo,
		client:      client,
		logger:      log.With(logger.String("loop", LoopInventory)),
		metrics:     m,
		concurrency: concurrency,
	}
}

// Cycle reconciles every registered host once. Changes counts created
// and deleted cameras.
func (inv *Inventory) Cycle(ctx context.Context) (Report, error) {
	hosts, err := inv.repo.ListHosts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list hosts: %w", err)
	}

	report := fanOut(ctx, hosts, inv.concurrency, inv.logger, inv.reconcile)

	fields := []logger.Field{
		logger.Int("hosts", report.Hosts),
		logger.Int("reconciled", report.Succeeded),
		logger.Int("failed", report.Failed),
		logger.Int("skipped", report.Skipped),
		logger.Int("created", report.Created),
		logger.Int("updated", report.Updated),
		logger.Int("deleted", report.Deleted),
		logger.Int("op_errors", report.OpErrors),
	}
	if report.Created+report.Updated+report.Deleted+report.Failed+report.OpErrors > 0 {
		inv.logger.Info("inventory cycle completed", fields...)
	} else {
		inv.logger.Debug("inventory cycle completed, nothing to do", fields...)
	}
	return report, nil
}

func (inv *Inventory) reconcile(ctx context.Context, host domain.Host) Report {
	out := Report{Hosts: 1}
	log := inv.logger.With(logger.String("host", host.Name), logger.String("host_id", host.ID))

	payload, err := inv.client.FetchConfig(ctx, host)
	if errors.Is(err, remote.ErrHostDisabled) {
		out.Skipped = 1
		return out
	}
	if err != nil {
		out.Failed = 1
		log.Warn("config fetch failed, skipping host", logger.Error(err))
		return out
	}

	current, err := inv.repo.GetHostWithCameras(ctx, host.ID)
	if err != nil {
		out.Failed = 1
		log.Warn("failed to load local cameras, skipping host", logger.Error(err))
		return out
	}

	plan := Diff(current.Cameras, payload.Cameras())
	out.Succeeded = 1
	if plan.Empty() {
		return out
	}

	inv.apply(ctx, host, plan, &out, log)
	out.Changes = out.Created + out.Deleted
	return out
}

// apply runs every write in the plan; a failed write is logged and does
// not stop the others.
func (inv *Inventory) apply(ctx context.Context, host domain.Host, plan Plan, out *Report, log logger.Logger) {
	if len(plan.Delete) > 0 {
		err := inv.repo.DeleteCameras(ctx, host.ID, plan.DeleteIDs())
		inv.metrics.CameraOp(OpDelete, err)
		if err != nil {
			out.OpErrors++
			log.Error("failed to delete cameras",
				logger.Strings("cameras", cameraNames(plan.Delete)),
				logger.Error(err))
		} else {
			out.Deleted += len(plan.Delete)
			log.Info("deleted cameras", logger.Strings("cameras", cameraNames(plan.Delete)))
		}
	}

	for _, c := range plan.Create {
		_, err := inv.repo.CreateCamera(ctx, host.ID, c.Name, c.Config)
		inv.metrics.CameraOp(OpCreate, err)
		if err != nil {
			out.OpErrors++
			log.Error("failed to create camera", logger.String("camera", c.Name), logger.Error(err))
			continue
		}
		out.Created++
		log.Info("created camera", logger.String("camera", c.Name))
	}

	for _, u := range plan.Update {
		err := inv.repo.UpdateCameraConfig(ctx, host.ID, u.Camera.ID, u.Config)
		inv.metrics.CameraOp(OpUpdate, err)
		if err != nil {
			out.OpErrors++
			log.Error("failed to update camera config", logger.String("camera", u.Camera.Name), logger.Error(err))
			continue
		}
		out.Updated++
		log.Debug("updated camera config", logger.String("camera", u.Camera.Name))
	}
}

func cameraNames(cams []domain.Camera) []string {
	out := make([]string, len(cams))
	for i, c := range cams {
		out[i] = c.Name
	}
	return out
}
