package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/mw"
)

// Group mounts a set of related endpoints on the router.
type Group struct {
	Name  string
	Mount func(r chi.Router, d deps.Deps)
}

// Groups lists the endpoint groups in mount order.
func Groups() []Group {
	return []Group{
		{Name: "probes", Mount: mountProbes},
		{Name: "infra", Mount: mountInfra},
		{Name: "reconcile", Mount: mountReconcile},
		{Name: "tags", Mount: mountTags},
	}
}

// Mount registers every group on r.
func Mount(r chi.Router, d deps.Deps) {
	for _, g := range Groups() {
		g.Mount(r, d)
	}
}

// opsOnly restricts a route to the configured networks.
func opsOnly(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}
