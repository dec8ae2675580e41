package app

import (
	"net/http"

	"github.com/finote/finote/internal/config"
	"github.com/finote/finote/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-User-Id header into context for downstream services.
	// Authentication happens upstream; the id is trusted as-is and only
	// used to namespace the per-user blobs.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userIdHeader := req.Header.Get("X-User-Id")
			ctx := req.Context()

			if userIdHeader != "" {
				log.Debugf("request for user %s", userIdHeader)
				ctx = user.WithUser(ctx, user.User{Uid: userIdHeader})
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
