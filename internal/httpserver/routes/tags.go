package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/mw"
)

func mountTags(r chi.Router, d deps.Deps) {
	r.With(
		opsOnly(d),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	).Post("/hosts/{hostID}/cameras/{cameraID}/tags", handlers.TagCamera(d))
}
