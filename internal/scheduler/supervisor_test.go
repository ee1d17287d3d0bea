package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

func TestSupervisor_ReconcilesFleet(t *testing.T) {
	repo := newMemoryRepo()
	host := addHost(t, repo, "nvr", true)

	client := newFakeClient()
	client.status[host.URL] = true
	client.setConfig(host.URL, map[string]string{"front_door": `{}`})
	client.setStats(host.URL, `{"front_door": {"camera_fps": 15}}`)

	sup := NewSupervisor(repo, client, Options{}, testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.Start(ctx)
	sup.Start(ctx)

	waitFor(t, "inventory to create the camera", func() bool {
		_, ok := camerasByName(t, repo, host.ID)["front_door"]
		return ok
	})
	waitFor(t, "liveness to mark the host", func() bool {
		return getHost(t, repo, host.ID).Available == domain.True
	})

	// The first live-state cycle may have run before the camera existed.
	if err := sup.Trigger(LoopLiveState); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "live-state to mark the camera active", func() bool {
		return camerasByName(t, repo, host.ID)["front_door"].State == domain.True
	})

	for _, snap := range sup.Snapshots() {
		if snap.Cycles == 0 {
			t.Errorf("loop %s never ran", snap.Name)
		}
	}

	cancel()
	waited := make(chan struct{})
	go func() {
		sup.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("loops did not stop after cancel")
	}
}

func TestSupervisor_Trigger(t *testing.T) {
	sup := NewSupervisor(newMemoryRepo(), newFakeClient(), Options{}, testLogger(), nil)

	if err := sup.Trigger("nope"); !errors.Is(err, ErrUnknownLoop) {
		t.Errorf("Trigger(nope) = %v, want ErrUnknownLoop", err)
	}
	for _, name := range []string{LoopLiveness, LoopInventory, LoopLiveState, ""} {
		if err := sup.Trigger(name); err != nil {
			t.Errorf("Trigger(%q) = %v", name, err)
		}
	}
}

func TestSupervisor_SnapshotOrder(t *testing.T) {
	sup := NewSupervisor(newMemoryRepo(), newFakeClient(), Options{}, testLogger(), nil)
	snaps := sup.Snapshots()
	want := []string{LoopLiveness, LoopInventory, LoopLiveState}
	if len(snaps) != len(want) {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	for i, s := range snaps {
		if s.Name != want[i] {
			t.Errorf("snapshot %d = %s, want %s", i, s.Name, want[i])
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{StateSlowInterval: time.Minute}
	opts.applyDefaults()
	if opts.LivenessInterval != DefaultLivenessInterval || opts.MaxConcurrency != DefaultMaxConcurrency {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.StateSlowInterval != time.Minute {
		t.Errorf("explicit value overwritten: %v", opts.StateSlowInterval)
	}
}
