/*
Package handler provides the HTTP surface of the relay.

This file upgrades WebSocket requests, attaches the new connection to the hub and runs its
read and write loops for the lifetime of the connection.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/app/relay"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
	"chatrelay/internal/pkg/resp"
)

// HandleWebSocket returns the handler for the WebSocket endpoint.
// The handler blocks until the connection closes.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !deps.UpgradeLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "ip", ip)
			return
		}

		id := presence.ConnID(randx.ConnID())
		eventLimiter := rate.NewLimiter(rate.Limit(deps.Config.EventRate), deps.Config.EventBurst)
		client := relay.NewClient(deps.Hub, conn, id, eventLimiter)

		if !deps.Hub.Register(client) {
			logx.Warn("WebSocket connection dropped: hub is shutting down.", "conn_id", id)
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket connection established", "conn_id", id)

		go client.WritePump()

		client.ReadPump()
	}
}
