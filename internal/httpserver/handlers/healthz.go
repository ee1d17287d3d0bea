package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Build  buildInfo `json:"build"`
}

// Healthz is the liveness probe. It answers from memory only.
func Healthz(d deps.Deps) http.HandlerFunc {
	clock := d.TimeNow
	if clock == nil {
		clock = time.Now
	}
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		uptime := clock().Sub(d.StartTime).Truncate(time.Second)
		writeJSON(w, http.StatusOK, healthzResponse{
			Status: "ok",
			Uptime: uptime.String(),
			Build:  build,
		})
	}
}
