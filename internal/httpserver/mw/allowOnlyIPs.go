package mw

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/utils"
)

// AllowOnlyCIDRS answers 403 to clients outside the allowed networks.
// With no networks configured every client passes.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	matcher := utils.NewIPMatcher(allowed)

	return func(next http.Handler) http.Handler {
		if matcher.IsEmpty() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if matcher.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.Warn("ops endpoint refused",
				logger.String("ip", ip),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("request_id", middleware.GetReqID(r.Context())))
			http.Error(w, "client not in allowed networks", http.StatusForbidden)
		})
	}
}
