package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
	"github.com/MrSnakeDoc/nvrsync/internal/store/storetest"
)

func TestRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return New() })
}

func TestGetHostWithCamerasReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	h, _ := s.UpsertHost(ctx, domain.Host{Name: "nvr", URL: "http://nvr", Enabled: true})
	if _, err := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("CreateCamera() error = %v", err)
	}

	got, _ := s.GetHostWithCameras(ctx, h.ID)
	got.Cameras[0].Config[2] = 'X'
	got.Cameras[0].State = domain.True

	again, _ := s.GetHostWithCameras(ctx, h.ID)
	if string(again.Cameras[0].Config) != `{"a":1}` {
		t.Errorf("stored config mutated through copy: %s", again.Cameras[0].Config)
	}
	if again.Cameras[0].State != domain.Unknown {
		t.Errorf("stored state mutated through copy: %v", again.Cameras[0].State)
	}
}

func TestConcurrentDisjointWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	h, _ := s.UpsertHost(ctx, domain.Host{Name: "nvr", URL: "http://nvr", Enabled: true})
	cam, _ := s.CreateCamera(ctx, h.ID, "garage", json.RawMessage(`{}`))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.UpdateCameraConfig(ctx, h.ID, cam.ID, json.RawMessage(`{"v":2}`))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.UpdateCameraState(ctx, h.ID, cam.ID, domain.True)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.UpdateHostAvailability(ctx, h.ID, domain.True)
		}
	}()
	wg.Wait()

	got, _ := s.GetHostWithCameras(ctx, h.ID)
	if got.Available != domain.True {
		t.Errorf("availability = %v, want true", got.Available)
	}
	if got.Cameras[0].State != domain.True || string(got.Cameras[0].Config) != `{"v":2}` {
		t.Errorf("camera = %+v, want state true and config {\"v\":2}", got.Cameras[0])
	}
}
