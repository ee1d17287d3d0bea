package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/handlers"
)

func mountInfra(r chi.Router, d deps.Deps) {
	r.Group(func(ops chi.Router) {
		ops.Use(opsOnly(d))
		ops.Get("/infra", handlers.Infra(d))
		if d.MetricsHandler != nil {
			ops.Method(http.MethodGet, "/metrics", d.MetricsHandler)
		}
	})
}
