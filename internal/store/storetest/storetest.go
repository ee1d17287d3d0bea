// Package storetest holds behaviour checks shared by every Repository backend.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Run exercises a fresh repository returned by newRepo for each subtest.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Helper()

	t.Run("upsert host keyed by url", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		first, err := repo.UpsertHost(ctx, domain.Host{Name: "garage", URL: "http://nvr-1:5000", Enabled: true})
		if err != nil {
			t.Fatalf("UpsertHost() error = %v", err)
		}
		if err := repo.UpdateHostAvailability(ctx, first.ID, domain.True); err != nil {
			t.Fatalf("UpdateHostAvailability() error = %v", err)
		}

		second, err := repo.UpsertHost(ctx, domain.Host{Name: "garage-renamed", URL: "http://nvr-1:5000", Enabled: false})
		if err != nil {
			t.Fatalf("UpsertHost() second error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("UpsertHost() changed id %q -> %q", first.ID, second.ID)
		}

		hosts, err := repo.ListHosts(ctx)
		if err != nil {
			t.Fatalf("ListHosts() error = %v", err)
		}
		if len(hosts) != 1 {
			t.Fatalf("ListHosts() len = %d, want 1", len(hosts))
		}
		if hosts[0].Name != "garage-renamed" || hosts[0].Enabled {
			t.Errorf("host not updated: %+v", hosts[0])
		}
		if hosts[0].Available != domain.True {
			t.Errorf("UpsertHost() reset availability to %v", hosts[0].Available)
		}
	})

	t.Run("list enabled hosts", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		mustHost(t, repo, "a", "http://a", true)
		mustHost(t, repo, "b", "http://b", false)

		hosts, err := repo.ListEnabledHosts(ctx)
		if err != nil {
			t.Fatalf("ListEnabledHosts() error = %v", err)
		}
		if len(hosts) != 1 || hosts[0].Name != "a" {
			t.Errorf("ListEnabledHosts() = %+v, want only a", hosts)
		}
	})

	t.Run("camera lifecycle", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		h := mustHost(t, repo, "nvr", "http://nvr", true)

		cam, err := repo.CreateCamera(ctx, h.ID, "front_door", json.RawMessage(`{"fps":5}`))
		if err != nil {
			t.Fatalf("CreateCamera() error = %v", err)
		}
		if cam.State != domain.Unknown {
			t.Errorf("new camera state = %v, want unknown", cam.State)
		}

		if _, err := repo.CreateCamera(ctx, h.ID, "front_door", json.RawMessage(`{}`)); !errors.Is(err, store.ErrDuplicateKey) {
			t.Errorf("CreateCamera() duplicate error = %v, want ErrDuplicateKey", err)
		}

		if err := repo.UpdateCameraState(ctx, h.ID, cam.ID, domain.True); err != nil {
			t.Fatalf("UpdateCameraState() error = %v", err)
		}
		if err := repo.UpdateCameraConfig(ctx, h.ID, cam.ID, json.RawMessage(`{"fps":10}`)); err != nil {
			t.Fatalf("UpdateCameraConfig() error = %v", err)
		}

		got, err := repo.GetHostWithCameras(ctx, h.ID)
		if err != nil {
			t.Fatalf("GetHostWithCameras() error = %v", err)
		}
		if len(got.Cameras) != 1 {
			t.Fatalf("cameras len = %d, want 1", len(got.Cameras))
		}
		c := got.Cameras[0]
		if c.State != domain.True {
			t.Errorf("state = %v, want true (config write must not touch state)", c.State)
		}
		if string(c.Config) != `{"fps":10}` {
			t.Errorf("config = %s, want {\"fps\":10}", c.Config)
		}
	})

	t.Run("camera names are scoped to host", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		h1 := mustHost(t, repo, "one", "http://one", true)
		h2 := mustHost(t, repo, "two", "http://two", true)

		if _, err := repo.CreateCamera(ctx, h1.ID, "garage", json.RawMessage(`{}`)); err != nil {
			t.Fatalf("CreateCamera() h1 error = %v", err)
		}
		if _, err := repo.CreateCamera(ctx, h2.ID, "garage", json.RawMessage(`{}`)); err != nil {
			t.Errorf("CreateCamera() same name on another host error = %v", err)
		}
	})

	t.Run("delete cameras removes tags", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		h := mustHost(t, repo, "nvr", "http://nvr", true)

		keep, _ := repo.CreateCamera(ctx, h.ID, "keep", json.RawMessage(`{}`))
		drop, _ := repo.CreateCamera(ctx, h.ID, "drop", json.RawMessage(`{}`))
		if err := repo.TagCamera(ctx, h.ID, drop.ID, "outdoor"); err != nil {
			t.Fatalf("TagCamera() error = %v", err)
		}

		if err := repo.DeleteCameras(ctx, h.ID, []string{drop.ID}); err != nil {
			t.Fatalf("DeleteCameras() error = %v", err)
		}

		got, err := repo.GetHostWithCameras(ctx, h.ID)
		if err != nil {
			t.Fatalf("GetHostWithCameras() error = %v", err)
		}
		if len(got.Cameras) != 1 || got.Cameras[0].ID != keep.ID {
			t.Fatalf("cameras after delete = %+v, want only keep", got.Cameras)
		}

		// Re-creating the name must start from a clean slate.
		again, err := repo.CreateCamera(ctx, h.ID, "drop", json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("CreateCamera() after delete error = %v", err)
		}
		got, _ = repo.GetHostWithCameras(ctx, h.ID)
		for _, c := range got.Cameras {
			if c.ID == again.ID && len(c.Tags) != 0 {
				t.Errorf("recreated camera inherited tags %v", c.Tags)
			}
		}
	})

	t.Run("tags round-trip verbatim", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		h := mustHost(t, repo, "nvr", "http://nvr", true)
		cam, err := repo.CreateCamera(ctx, h.ID, "porch", json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("CreateCamera() error = %v", err)
		}
		for _, tag := range []string{"zone:front,door", "outdoor"} {
			if err := repo.TagCamera(ctx, h.ID, cam.ID, tag); err != nil {
				t.Fatalf("TagCamera(%q) error = %v", tag, err)
			}
		}

		got, err := repo.GetHostWithCameras(ctx, h.ID)
		if err != nil {
			t.Fatalf("GetHostWithCameras() error = %v", err)
		}
		tags := append([]string(nil), got.Cameras[0].Tags...)
		sort.Strings(tags)
		if want := []string{"outdoor", "zone:front,door"}; !reflect.DeepEqual(tags, want) {
			t.Errorf("tags = %q, want %q", tags, want)
		}
	})

	t.Run("missing records", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		if _, err := repo.GetHostWithCameras(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetHostWithCameras() error = %v, want ErrNotFound", err)
		}
		if err := repo.UpdateHostAvailability(ctx, "nope", domain.False); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("UpdateHostAvailability() error = %v, want ErrNotFound", err)
		}
		h := mustHost(t, repo, "nvr", "http://nvr", true)
		if err := repo.UpdateCameraState(ctx, h.ID, "nope", domain.True); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("UpdateCameraState() error = %v, want ErrNotFound", err)
		}
	})
}

func mustHost(t *testing.T, repo store.Repository, name, url string, enabled bool) *domain.Host {
	t.Helper()
	h, err := repo.UpsertHost(context.Background(), domain.Host{Name: name, URL: url, Enabled: enabled})
	if err != nil {
		t.Fatalf("UpsertHost(%s) error = %v", name, err)
	}
	return h
}
