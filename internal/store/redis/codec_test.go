package redis

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

func toStrings(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestHostHashRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := domain.Host{
		ID:        "h1",
		Name:      "garage",
		URL:       "http://10.0.0.5:5000",
		Enabled:   true,
		Available: domain.False,
		CreatedAt: now,
		UpdatedAt: now,
	}

	got, err := hashToHost(toStrings(hostToHash(h)))
	if err != nil {
		t.Fatalf("hashToHost() error = %v", err)
	}
	if got.ID != h.ID || got.Name != h.Name || got.URL != h.URL || got.Enabled != h.Enabled || got.Available != h.Available {
		t.Errorf("hashToHost() = %+v, want %+v", got, h)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, now)
	}
}

func TestHashToCamera(t *testing.T) {
	got, err := hashToCamera(map[string]string{
		fieldID:     "c1",
		fieldHostID: "h1",
		fieldName:   "front_door",
		fieldConfig: `{"detect":{"fps":5}}`,
		fieldState:  "true",
	})
	if err != nil {
		t.Fatalf("hashToCamera() error = %v", err)
	}
	if got.State != domain.True {
		t.Errorf("State = %v, want true", got.State)
	}
	if !json.Valid(got.Config) || string(got.Config) != `{"detect":{"fps":5}}` {
		t.Errorf("Config = %s, want verbatim blob", got.Config)
	}
}

func TestHashMissingID(t *testing.T) {
	if _, err := hashToHost(map[string]string{}); err == nil {
		t.Error("hashToHost() with empty hash should return error")
	}
	if _, err := hashToCamera(map[string]string{fieldState: "bogus", fieldID: "c"}); err == nil {
		t.Error("hashToCamera() with invalid state should return error")
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{HostKey("a"), "nvrsync:host:a"},
		{HostCamerasKey("a"), "nvrsync:host:a:cameras"},
		{HostCameraNamesKey("a"), "nvrsync:host:a:camera_names"},
		{CameraKey("c"), "nvrsync:camera:c"},
		{CameraTagsKey("c"), "nvrsync:camera:c:tags"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}
