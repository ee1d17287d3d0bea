package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/scheduler"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Hosts *int   `json:"hosts,omitempty"`
	Error string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	Loops      []scheduler.Snapshot       `json:"loops"`
}

// Infra reports the store status and the state of every loop.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loops := d.Loops.Snapshots()
		components := map[string]componentStatus{
			"store": checkStore(r.Context(), d),
		}

		response := infraResponse{
			Mode:       determineMode(components, loops),
			Components: components,
			Loops:      loops,
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// determineMode is "critical" without a store, "degraded" while a loop's
// last cycle failed, "nominal" otherwise.
func determineMode(components map[string]componentStatus, loops []scheduler.Snapshot) string {
	if st, ok := components["store"]; ok && !st.OK {
		return "critical"
	}
	for _, l := range loops {
		if l.LastError != "" {
			return "degraded"
		}
	}
	return "nominal"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(parent, storeCheckTimeout)
	defer cancel()

	if err := d.Repository.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: d.StoreKind, Error: "unreachable"}
	}

	hosts, err := d.Repository.ListHosts(ctx)
	if err != nil {
		return componentStatus{OK: false, Mode: d.StoreKind, Error: "hosts unreadable"}
	}
	n := len(hosts)
	return componentStatus{OK: true, Mode: d.StoreKind, Hosts: &n}
}
