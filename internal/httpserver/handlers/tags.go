package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

const maxTagBody = 4 << 10

type tagRequest struct {
	Tag string `json:"tag"`
}

// TagCamera attaches an operator tag to a camera. Tags go away with the
// camera when the inventory loop deletes it.
func TagCamera(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID := chi.URLParam(r, "hostID")
		cameraID := chi.URLParam(r, "cameraID")

		var req tagRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTagBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "body must be {\"tag\": \"...\"}")
			return
		}
		tag := strings.TrimSpace(req.Tag)
		if tag == "" {
			writeError(w, http.StatusBadRequest, "tag is empty")
			return
		}

		err := d.Repository.TagCamera(r.Context(), hostID, cameraID, tag)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "camera not found on host")
			return
		case err != nil:
			d.Logger.Error("failed to tag camera",
				logger.String("host_id", hostID),
				logger.String("camera_id", cameraID),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		d.Logger.Info("camera tagged",
			logger.String("host_id", hostID),
			logger.String("camera_id", cameraID),
			logger.String("tag", tag))
		w.WriteHeader(http.StatusNoContent)
	}
}
