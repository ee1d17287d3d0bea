package domain

import "time"

// Host is a registered external NVR endpoint mirrored locally.
//
// Hosts are created by administrative operations; the reconciliation
// loops only read them and write back Available.
type Host struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque local identifier.
	ID string `json:"id"`

	// URL is the base URL of the remote API and the natural key used to
	// correlate a host with its external registration.
	// Example: http://10.0.0.12:5000
	URL string `json:"url"`

	// ─────────────────────────────
	// Administrative attributes
	// ─────────────────────────────

	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	// ─────────────────────────────
	// Observed state
	// ─────────────────────────────

	// Available is owned by the liveness loop.
	Available Tristate `json:"available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HostWithCameras is a host together with the cameras it owns.
type HostWithCameras struct {
	Host
	Cameras []Camera `json:"cameras"`
}

// CameraNames returns name -> camera for the host's cameras.
func (h *HostWithCameras) CameraNames() map[string]Camera {
	byName := make(map[string]Camera, len(h.Cameras))
	for _, c := range h.Cameras {
		byName[c.Name] = c
	}
	return byName
}
