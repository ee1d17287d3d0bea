package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Store keeps hosts and cameras in process memory.
// It backs single-node dry runs and the scheduler tests.
type Store struct {
	mu      sync.RWMutex
	hosts   map[string]*domain.Host              // ID -> Host
	byURL   map[string]string                    // URL -> host ID
	cameras map[string]map[string]*domain.Camera // host ID -> camera ID -> Camera
	now     func() time.Time
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		hosts:   make(map[string]*domain.Host),
		byURL:   make(map[string]string),
		cameras: make(map[string]map[string]*domain.Camera),
		now:     time.Now,
	}
}

// ListHosts returns every host sorted by name
func (s *Store) ListHosts(_ context.Context) ([]domain.Host, error) {
	return s.list(func(*domain.Host) bool { return true }), nil
}

// ListEnabledHosts returns enabled hosts sorted by name
func (s *Store) ListEnabledHosts(_ context.Context) ([]domain.Host, error) {
	return s.list(func(h *domain.Host) bool { return h.Enabled }), nil
}

func (s *Store) list(keep func(*domain.Host) bool) []domain.Host {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hosts := make([]domain.Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		if keep(h) {
			hosts = append(hosts, *h)
		}
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })
	return hosts
}

// GetHostWithCameras returns a copy of the host and its cameras
func (s *Store) GetHostWithCameras(_ context.Context, hostID string) (*domain.HostWithCameras, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hosts[hostID]
	if !ok {
		return nil, store.ErrNotFound
	}

	out := &domain.HostWithCameras{Host: *h}
	for _, c := range s.cameras[hostID] {
		out.Cameras = append(out.Cameras, copyCamera(c))
	}
	sort.Slice(out.Cameras, func(i, j int) bool { return out.Cameras[i].Name < out.Cameras[j].Name })
	return out, nil
}

// CreateCamera adds a camera with unknown state
func (s *Store) CreateCamera(_ context.Context, hostID, name string, config json.RawMessage) (*domain.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hosts[hostID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, c := range s.cameras[hostID] {
		if c.Name == name {
			return nil, store.ErrDuplicateKey
		}
	}

	now := s.now()
	cam := &domain.Camera{
		ID:        uuid.NewString(),
		HostID:    hostID,
		Name:      name,
		Config:    append(json.RawMessage(nil), config...),
		State:     domain.Unknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.cameras[hostID] == nil {
		s.cameras[hostID] = make(map[string]*domain.Camera)
	}
	s.cameras[hostID][cam.ID] = cam

	out := copyCamera(cam)
	return &out, nil
}

// UpdateCameraConfig overwrites the config blob of one camera
func (s *Store) UpdateCameraConfig(_ context.Context, hostID, cameraID string, config json.RawMessage) error {
	return s.mutateCamera(hostID, cameraID, func(c *domain.Camera) {
		c.Config = append(json.RawMessage(nil), config...)
	})
}

// UpdateCameraState sets the activity state of one camera
func (s *Store) UpdateCameraState(_ context.Context, hostID, cameraID string, state domain.Tristate) error {
	return s.mutateCamera(hostID, cameraID, func(c *domain.Camera) {
		c.State = state
	})
}

func (s *Store) mutateCamera(hostID, cameraID string, fn func(*domain.Camera)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cameras[hostID][cameraID]
	if !ok {
		return store.ErrNotFound
	}
	fn(c)
	c.UpdatedAt = s.now()
	return nil
}

// DeleteCameras removes cameras; tags live on the record so they go with it
func (s *Store) DeleteCameras(_ context.Context, hostID string, cameraIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range cameraIDs {
		delete(s.cameras[hostID], id)
	}
	return nil
}

// UpdateHostAvailability sets the availability flag of one host
func (s *Store) UpdateHostAvailability(_ context.Context, hostID string, state domain.Tristate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hosts[hostID]
	if !ok {
		return store.ErrNotFound
	}
	h.Available = state
	h.UpdatedAt = s.now()
	return nil
}

// UpsertHost registers or updates a host by URL
func (s *Store) UpsertHost(_ context.Context, host domain.Host) (*domain.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.byURL[host.URL]; ok {
		existing := s.hosts[id]
		existing.Name = host.Name
		existing.Enabled = host.Enabled
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}

	h := host
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	s.hosts[h.ID] = &h
	s.byURL[h.URL] = h.ID

	out := h
	return &out, nil
}

// TagCamera attaches a tag to a camera
func (s *Store) TagCamera(_ context.Context, hostID, cameraID, tag string) error {
	return s.mutateCamera(hostID, cameraID, func(c *domain.Camera) {
		for _, t := range c.Tags {
			if t == tag {
				return
			}
		}
		c.Tags = append(c.Tags, tag)
	})
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() error { return nil }

func copyCamera(c *domain.Camera) domain.Camera {
	out := *c
	out.Config = append(json.RawMessage(nil), c.Config...)
	out.Tags = append([]string(nil), c.Tags...)
	return out
}

var _ store.Repository = (*Store)(nil)
