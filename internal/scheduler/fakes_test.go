package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/remote"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
	"github.com/MrSnakeDoc/nvrsync/internal/store/memory"
)

var errUnreachable = fmt.Errorf("%w: connection refused", remote.ErrFetch)

// fakeClient answers per host URL. A host without an entry fails.
type fakeClient struct {
	mu      sync.Mutex
	status  map[string]bool
	configs map[string]map[string]json.RawMessage
	stats   map[string]string
	calls   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		status:  make(map[string]bool),
		configs: make(map[string]map[string]json.RawMessage),
		stats:   make(map[string]string),
	}
}

func (f *fakeClient) setConfig(url string, cameras map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg := make(map[string]json.RawMessage, len(cameras))
	for name, raw := range cameras {
		cfg[name] = json.RawMessage(raw)
	}
	f.configs[url] = cfg
}

func (f *fakeClient) setStats(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[url] = body
}

func (f *fakeClient) drop(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.status, url)
	delete(f.configs, url)
	delete(f.stats, url)
}

func (f *fakeClient) begin(host domain.Host) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !host.Enabled {
		return remote.ErrHostDisabled
	}
	f.calls++
	return nil
}

func (f *fakeClient) FetchStatus(_ context.Context, host domain.Host) (bool, error) {
	if err := f.begin(host); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ok, found := f.status[host.URL]
	if !found {
		return false, errUnreachable
	}
	return ok, nil
}

func (f *fakeClient) FetchConfig(_ context.Context, host domain.Host) (*remote.ConfigPayload, error) {
	if err := f.begin(host); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, found := f.configs[host.URL]
	if !found {
		return nil, errUnreachable
	}
	copied := make(map[string]json.RawMessage, len(cfg))
	for k, v := range cfg {
		copied[k] = v
	}
	return remote.NewConfigPayload(copied), nil
}

func (f *fakeClient) FetchStats(_ context.Context, host domain.Host) (*remote.StatsPayload, error) {
	if err := f.begin(host); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body, found := f.stats[host.URL]
	if !found {
		return nil, errUnreachable
	}
	return remote.ParseStats([]byte(body))
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// flakyRepo fails selected writes and reads.
type flakyRepo struct {
	store.Repository
	listErr       error
	failCreate    map[string]bool // camera names
	failStateFor  map[string]bool // camera IDs
	failAvailable map[string]bool // host IDs
}

var errStorage = errors.New("storage unavailable")

func (r *flakyRepo) ListHosts(ctx context.Context) ([]domain.Host, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Repository.ListHosts(ctx)
}

func (r *flakyRepo) CreateCamera(ctx context.Context, hostID, name string, config json.RawMessage) (*domain.Camera, error) {
	if r.failCreate[name] {
		return nil, errStorage
	}
	return r.Repository.CreateCamera(ctx, hostID, name, config)
}

func (r *flakyRepo) UpdateCameraState(ctx context.Context, hostID, cameraID string, state domain.Tristate) error {
	if r.failStateFor[cameraID] {
		return errStorage
	}
	return r.Repository.UpdateCameraState(ctx, hostID, cameraID, state)
}

func (r *flakyRepo) UpdateHostAvailability(ctx context.Context, hostID string, state domain.Tristate) error {
	if r.failAvailable[hostID] {
		return errStorage
	}
	return r.Repository.UpdateHostAvailability(ctx, hostID, state)
}

func addHost(t *testing.T, repo store.Repository, name string, enabled bool) domain.Host {
	t.Helper()
	h, err := repo.UpsertHost(context.Background(), domain.Host{
		Name:    name,
		URL:     "http://" + name + ":5000",
		Enabled: enabled,
	})
	if err != nil {
		t.Fatalf("UpsertHost(%s) error = %v", name, err)
	}
	return *h
}

func addCamera(t *testing.T, repo store.Repository, hostID, name, config string) domain.Camera {
	t.Helper()
	c, err := repo.CreateCamera(context.Background(), hostID, name, json.RawMessage(config))
	if err != nil {
		t.Fatalf("CreateCamera(%s) error = %v", name, err)
	}
	return *c
}

// camerasByName loads a host's cameras keyed by name.
func camerasByName(t *testing.T, repo store.Repository, hostID string) map[string]domain.Camera {
	t.Helper()
	hc, err := repo.GetHostWithCameras(context.Background(), hostID)
	if err != nil {
		t.Fatalf("GetHostWithCameras() error = %v", err)
	}
	return hc.CameraNames()
}

func getHost(t *testing.T, repo store.Repository, hostID string) domain.Host {
	t.Helper()
	hc, err := repo.GetHostWithCameras(context.Background(), hostID)
	if err != nil {
		t.Fatalf("GetHostWithCameras() error = %v", err)
	}
	return hc.Host
}

func newMemoryRepo() *memory.Store { return memory.New() }

func testLogger() logger.Logger { return logger.Nop() }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
