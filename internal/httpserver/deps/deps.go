package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/scheduler"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Loops is the part of the supervisor exposed over HTTP.
type Loops interface {
	Trigger(name string) error
	Snapshots() []scheduler.Snapshot
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	AllowedHosts       []string         // Host headers allowed to trigger reconciliation
	AllowedCIDRS       []string         // IPs allowed to access ops endpoints
	TrustProxy         bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Repository         store.Repository // hosts and cameras
	StoreKind          string           // "redis" | "sqlite" | "memory"
	Loops              Loops            // reconciliation loops
	MetricsHandler     http.Handler     // prometheus exposition, nil disables /metrics
	ReconcileBurst     int
	ReconcilePerMinute int
}
