package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FrameRateField is the per-camera numeric field that marks an entry of the
// stats payload as a camera-activity record.
const FrameRateField = "camera_fps"

// ConfigPayload is the subset of the host configuration the engine mirrors.
type ConfigPayload struct {
	cameras map[string]json.RawMessage
}

// ParseConfig decodes a configuration document. The "cameras" object is
// required; an empty object is a valid host with no cameras.
func ParseConfig(body []byte) (*ConfigPayload, error) {
	var doc struct {
		Cameras map[string]json.RawMessage `json:"cameras"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed config: %w", err)
	}
	if doc.Cameras == nil {
		return nil, errors.New("malformed config: no cameras object")
	}
	return &ConfigPayload{cameras: doc.Cameras}, nil
}

// NewConfigPayload builds a payload from name -> config pairs.
func NewConfigPayload(cameras map[string]json.RawMessage) *ConfigPayload {
	if cameras == nil {
		cameras = map[string]json.RawMessage{}
	}
	return &ConfigPayload{cameras: cameras}
}

// Cameras returns camera name -> verbatim configuration.
func (p *ConfigPayload) Cameras() map[string]json.RawMessage {
	return p.cameras
}

// StatsPayload is a host statistics document.
type StatsPayload struct {
	entries map[string]json.RawMessage
}

// ParseStats decodes a statistics document; it must be a JSON object.
func ParseStats(body []byte) (*StatsPayload, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("malformed stats: %w", err)
	}
	if entries == nil {
		return nil, errors.New("malformed stats: not an object")
	}
	return &StatsPayload{entries: entries}, nil
}

// Activity maps camera name -> active. An entry counts as a camera only if
// it is an object exposing a numeric FrameRateField; it is active iff that
// value is non-zero. Entries are read from the top level and from a nested
// "cameras" object, the nested one winning on conflicts.
func (p *StatsPayload) Activity() map[string]bool {
	out := make(map[string]bool)
	collectActivity(p.entries, out)
	if nested, ok := p.entries["cameras"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(nested, &inner) == nil {
			collectActivity(inner, out)
		}
	}
	return out
}

func collectActivity(entries map[string]json.RawMessage, out map[string]bool) {
	for name, raw := range entries {
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			continue
		}
		fpsRaw, ok := fields[FrameRateField]
		if !ok || bytes.Equal(bytes.TrimSpace(fpsRaw), []byte("null")) {
			continue
		}
		var fps float64
		if json.Unmarshal(fpsRaw, &fps) != nil {
			continue
		}
		out[name] = fps != 0
	}
}
