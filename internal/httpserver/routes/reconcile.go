package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/mw"
)

func mountReconcile(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.ReconcileBurst,
		RefillPerIPPerMin: d.ReconcilePerMinute,
		MaxEntries:        1024,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})
	r.With(
		opsOnly(d),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		limit,
	).Post("/reconcile", handlers.Reconcile(d))
}
