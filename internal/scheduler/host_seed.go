package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/sources/hostfile"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// HostSeeder registers the hosts listed in the hosts file on startup.
// Hosts are upserted by URL; hosts missing from the file are left alone.
type HostSeeder struct {
	loader *hostfile.Loader
	mapper *hostfile.Mapper
	repo   store.Repository
	logger logger.Logger
}

// NewHostSeeder creates a seeder for hostsFile
func NewHostSeeder(hostsFile string, repo store.Repository, log logger.Logger) *HostSeeder {
	return &HostSeeder{
		loader: hostfile.NewLoader(hostsFile),
		mapper: hostfile.NewMapper(),
		repo:   repo,
		logger: log,
	}
}

// Seed loads the file and upserts every host. It returns the number of
// hosts written; a failed upsert does not stop the others.
func (hs *HostSeeder) Seed(ctx context.Context) (int, error) {
	hs.logger.Info("seeding hosts from file")

	file, err := hs.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load hosts file: %w", err)
	}

	hosts, err := hs.mapper.MapHosts(file)
	if err != nil {
		return 0, fmt.Errorf("failed to map hosts: %w", err)
	}

	if len(hosts) == 0 {
		hs.logger.Info("no hosts found in hosts file")
		return 0, nil
	}

	var errs []error
	seeded := 0
	for _, h := range hosts {
		saved, err := hs.repo.UpsertHost(ctx, h)
		if err != nil {
			hs.logger.Warn("failed to register host",
				logger.String("host", h.Name),
				logger.String("url", h.URL),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("host %q: %w", h.Name, err))
			continue
		}
		hs.logger.Debug("registered host",
			logger.String("host", saved.Name),
			logger.String("host_id", saved.ID),
			logger.Bool("enabled", saved.Enabled))
		seeded++
	}

	hs.logger.Info("seeded hosts from file",
		logger.Int("count", seeded))

	return seeded, errors.Join(errs...)
}
