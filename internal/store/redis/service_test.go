package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
	"github.com/MrSnakeDoc/nvrsync/internal/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		s, _ := newTestStore(t)
		return s
	})
}

func registerHost(t *testing.T, s *Store) *domain.Host {
	t.Helper()
	h, err := s.UpsertHost(context.Background(), domain.Host{Name: "nvr", URL: "http://nvr:5000", Enabled: true})
	if err != nil {
		t.Fatalf("UpsertHost() error = %v", err)
	}
	return h
}

func TestCreateCameraTakesOverStaleNameClaim(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	h := registerHost(t, s)

	// A create interrupted after claiming the name left no camera hash.
	mr.HSet(HostCameraNamesKey(h.ID), "garage", "dead-id")
	if _, err := mr.SAdd(HostCamerasKey(h.ID), "dead-id"); err != nil {
		t.Fatal(err)
	}

	cam, err := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{"fps":5}`))
	if err != nil {
		t.Fatalf("CreateCamera() over stale claim error = %v", err)
	}

	got, err := s.GetHostWithCameras(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHostWithCameras() error = %v", err)
	}
	if len(got.Cameras) != 1 || got.Cameras[0].ID != cam.ID {
		t.Fatalf("cameras = %+v, want only %s", got.Cameras, cam.ID)
	}
	if owner := mr.HGet(HostCameraNamesKey(h.ID), "garage"); owner != cam.ID {
		t.Errorf("name claim = %q, want %q", owner, cam.ID)
	}
	if ok, _ := mr.SIsMember(HostCamerasKey(h.ID), "dead-id"); ok {
		t.Error("stale camera id still listed on the host")
	}
}

func TestCreateCameraKeepsLiveNameClaim(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	h := registerHost(t, s)

	first, err := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("CreateCamera() error = %v", err)
	}
	if _, err := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{}`)); err == nil {
		t.Fatal("second CreateCamera() succeeded over a live camera")
	}
	got, _ := s.GetHostWithCameras(ctx, h.ID)
	if len(got.Cameras) != 1 || got.Cameras[0].ID != first.ID {
		t.Errorf("cameras = %+v, want only %s", got.Cameras, first.ID)
	}
}

func TestDeleteCamerasReleasesOrphanedClaim(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	h := registerHost(t, s)

	mr.HSet(HostCameraNamesKey(h.ID), "garage", "dead-id")
	if err := s.DeleteCameras(ctx, h.ID, []string{"dead-id"}); err != nil {
		t.Fatalf("DeleteCameras() error = %v", err)
	}
	if owner := mr.HGet(HostCameraNamesKey(h.ID), "garage"); owner != "" {
		t.Errorf("claim survived delete: %q", owner)
	}
	if _, err := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{}`)); err != nil {
		t.Errorf("CreateCamera() after delete error = %v", err)
	}
}

func TestDeleteCamerasSkipsForeignCamera(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	h1 := registerHost(t, s)
	h2, err := s.UpsertHost(ctx, domain.Host{Name: "other", URL: "http://other:5000", Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	cam, err := s.CreateCamera(ctx, h2.ID, "porch", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCameras(ctx, h1.ID, []string{cam.ID}); err != nil {
		t.Fatalf("DeleteCameras() error = %v", err)
	}
	got, _ := s.GetHostWithCameras(ctx, h2.ID)
	if len(got.Cameras) != 1 {
		t.Errorf("foreign camera deleted: %+v", got.Cameras)
	}
}

func TestUpsertHostCompletesInterruptedRegistration(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	// URL claimed, host hash never written.
	mr.HSet(KeyHostsByURL, "http://nvr:5000", "half-id")

	h, err := s.UpsertHost(ctx, domain.Host{Name: "nvr", URL: "http://nvr:5000", Enabled: true})
	if err != nil {
		t.Fatalf("UpsertHost() error = %v", err)
	}
	if h.ID != "half-id" {
		t.Errorf("ID = %q, want the claimed id", h.ID)
	}
	hosts, err := s.ListHosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hosts) != 1 || hosts[0].Name != "nvr" {
		t.Errorf("ListHosts() = %+v", hosts)
	}
}
