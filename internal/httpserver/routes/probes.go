package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/handlers"
)

func mountProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(opsOnly(d)).Get("/readyz", handlers.Readyz(d))
}
