package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

// Hash field names. Each loop writes only its own field.
const (
	fieldID        = "id"
	fieldHostID    = "host_id"
	fieldName      = "name"
	fieldURL       = "url"
	fieldEnabled   = "enabled"
	fieldAvailable = "available"
	fieldConfig    = "config"
	fieldState     = "state"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func hostToHash(h domain.Host) map[string]interface{} {
	return map[string]interface{}{
		fieldID:        h.ID,
		fieldName:      h.Name,
		fieldURL:       h.URL,
		fieldEnabled:   strconv.FormatBool(h.Enabled),
		fieldAvailable: h.Available.String(),
		fieldCreatedAt: formatTime(h.CreatedAt),
		fieldUpdatedAt: formatTime(h.UpdatedAt),
	}
}

func hashToHost(m map[string]string) (domain.Host, error) {
	if m[fieldID] == "" {
		return domain.Host{}, fmt.Errorf("host hash has no id")
	}
	enabled, _ := strconv.ParseBool(m[fieldEnabled])
	available, err := domain.ParseTristate(m[fieldAvailable])
	if err != nil {
		return domain.Host{}, fmt.Errorf("host %s: %w", m[fieldID], err)
	}
	return domain.Host{
		ID:        m[fieldID],
		Name:      m[fieldName],
		URL:       m[fieldURL],
		Enabled:   enabled,
		Available: available,
		CreatedAt: parseTime(m[fieldCreatedAt]),
		UpdatedAt: parseTime(m[fieldUpdatedAt]),
	}, nil
}

func cameraToHash(c domain.Camera) map[string]interface{} {
	return map[string]interface{}{
		fieldID:        c.ID,
		fieldHostID:    c.HostID,
		fieldName:      c.Name,
		fieldConfig:    string(c.Config),
		fieldState:     c.State.String(),
		fieldCreatedAt: formatTime(c.CreatedAt),
		fieldUpdatedAt: formatTime(c.UpdatedAt),
	}
}

func hashToCamera(m map[string]string) (domain.Camera, error) {
	if m[fieldID] == "" {
		return domain.Camera{}, fmt.Errorf("camera hash has no id")
	}
	state, err := domain.ParseTristate(m[fieldState])
	if err != nil {
		return domain.Camera{}, fmt.Errorf("camera %s: %w", m[fieldID], err)
	}
	var cfg json.RawMessage
	if raw := m[fieldConfig]; raw != "" {
		cfg = json.RawMessage(raw)
	}
	return domain.Camera{
		ID:        m[fieldID],
		HostID:    m[fieldHostID],
		Name:      m[fieldName],
		Config:    cfg,
		State:     state,
		CreatedAt: parseTime(m[fieldCreatedAt]),
		UpdatedAt: parseTime(m[fieldUpdatedAt]),
	}, nil
}
