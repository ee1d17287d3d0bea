package domain

import (
	"encoding/json"
	"time"
)

// Camera is a named recording unit owned by exactly one Host.
//
// The remote side exposes no stable identifier, so Name is the only key
// used to correlate a local Camera with the remote configuration. It is
// unique within the owning host, not globally.
type Camera struct {
	ID     string `json:"id"`
	HostID string `json:"host_id"`
	Name   string `json:"name"`

	// Config is the remote configuration for this camera, copied verbatim.
	// Owned by the inventory loop; never originated locally.
	Config json.RawMessage `json:"config"`

	// State is the last observed activity. Owned by the live-state loop.
	State Tristate `json:"state"`

	// Tags are administrative associations. They are removed together
	// with the camera.
	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
