package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
)

const storeCheckTimeout = time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Readyz is the readiness probe: 200 while the repository answers a
// ping, 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), storeCheckTimeout)
		defer cancel()

		if err := d.Repository.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("store", d.StoreKind),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Store: d.StoreKind,
				Error: "store unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: d.StoreKind})
	}
}
