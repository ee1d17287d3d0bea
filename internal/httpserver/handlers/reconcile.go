package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/scheduler"
)

type reconcileResponse struct {
	Triggered string `json:"triggered"`
}

// Reconcile wakes one loop (?loop=inventory) or all of them. The request
// returns at once; the cycle runs on the loop's own goroutine.
func Reconcile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("loop")

		if err := d.Loops.Trigger(name); err != nil {
			if errors.Is(err, scheduler.ErrUnknownLoop) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		target := name
		if target == "" {
			target = "all"
		}
		d.Logger.Info("manual reconciliation triggered via endpoint",
			logger.String("loop", target),
			logger.String("remote_ip", r.RemoteAddr))

		writeJSON(w, http.StatusAccepted, reconcileResponse{Triggered: target})
	}
}
