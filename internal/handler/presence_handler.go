/*
Package handler provides the HTTP surface of the relay.

This file holds the read-only endpoints: liveness, health, transport stats and per-user presence.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/resp"
)

// RootBanner is the plain-text body served at the root path.
const RootBanner = "Socket.IO server is running"

// StatsResponse is the payload of the stats endpoint.
type StatsResponse struct {
	Connections int               `json:"connections"`
	Rooms       int               `json:"rooms"`
	OnlineUsers []presence.UserID `json:"onlineUsers"`
}

// PresenceResponse is the payload of the presence endpoint.
type PresenceResponse struct {
	UserID     presence.UserID `json:"userId"`
	Online     bool            `json:"online"`
	ActiveChat bool            `json:"activeChat"`
}

// HandleRoot answers liveness probes with a plain-text banner.
func HandleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(RootBanner))
	}
}

// HandleHealth reports service status in the JSON envelope.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": ServiceName,
		})
	}
}

// HandleStats reports connection and room counts and the online users.
func HandleStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Hub.Stats()

		online := deps.Hub.Engine().OnlineUsers()
		if online == nil {
			online = []presence.UserID{}
		}

		resp.RespondSuccess(w, r, StatsResponse{
			Connections: stats.Connections,
			Rooms:       stats.Rooms,
			OnlineUsers: online,
		})
	}
}

// HandlePresence reports whether a user is online and has a chat open.
func HandlePresence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := presence.UserID(strings.TrimSpace(chi.URLParam(r, "userId")))
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		engine := deps.Hub.Engine()
		resp.RespondSuccess(w, r, PresenceResponse{
			UserID:     userID,
			Online:     engine.IsOnline(userID),
			ActiveChat: engine.IsActive(userID),
		})
	}
}
