// Package store defines the Host Repository the reconciliation loops write
// through. Backends live in subpackages (memory, redis, sqlite).
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

var (
	// ErrNotFound is returned when a host or camera does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a camera name already exists on a host.
	ErrDuplicateKey = errors.New("duplicate")
)

// Repository is CRUD over Host and Camera records.
//
// Every write touches a single record and only the fields named by the
// method, so loops that own disjoint fields never overwrite each other.
type Repository interface {
	ListHosts(ctx context.Context) ([]domain.Host, error)
	ListEnabledHosts(ctx context.Context) ([]domain.Host, error)
	GetHostWithCameras(ctx context.Context, hostID string) (*domain.HostWithCameras, error)

	CreateCamera(ctx context.Context, hostID, name string, config json.RawMessage) (*domain.Camera, error)
	UpdateCameraConfig(ctx context.Context, hostID, cameraID string, config json.RawMessage) error
	UpdateCameraState(ctx context.Context, hostID, cameraID string, state domain.Tristate) error
	// DeleteCameras removes the cameras and their tag associations.
	DeleteCameras(ctx context.Context, hostID string, cameraIDs []string) error

	UpdateHostAvailability(ctx context.Context, hostID string, state domain.Tristate) error

	// UpsertHost registers a host keyed by URL. Administrative attributes
	// are overwritten; Available and the ID of an existing host are kept.
	UpsertHost(ctx context.Context, host domain.Host) (*domain.Host, error)
	TagCamera(ctx context.Context, hostID, cameraID, tag string) error

	Ping(ctx context.Context) error
	Close() error
}
