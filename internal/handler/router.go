/*
Package handler provides the HTTP surface of the relay.

This file builds the router: CORS, request IDs, request logging and panic recovery wrap the
liveness, stats and presence endpoints and the WebSocket endpoint.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/resp"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Chat Relay"

// Router builds the HTTP handler for deps.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowAll := deps.Config.IsDevelopment()
	allowedOrigins := make(map[string]struct{}, len(deps.Config.AllowedOrigins))
	for _, origin := range deps.Config.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowedOrigins[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: origin not allowed.", "origin", origin)
			return false
		},
	}

	corsOrigins := deps.Config.AllowedOrigins
	if allowAll {
		corsOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Use(c.Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
	})

	r.Get("/", HandleRoot())
	r.Get("/health", HandleHealth())

	r.Route("/api", func(api chi.Router) {
		api.Use(deps.APILimiter.Middleware)
		api.Get("/stats", HandleStats(deps))
		api.Get("/presence/{userId}", HandlePresence(deps))
	})

	r.Get("/ws", HandleWebSocket(upgrader, deps))

	return r
}
