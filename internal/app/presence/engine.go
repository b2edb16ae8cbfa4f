/*
Package presence contains the presence and routing core of the relay.

This file defines the Engine, the stateful decision core. It owns the connection registry,
the active-chat tracker and per-connection session metadata, and turns each inbound Event
into an ordered list of Commands for the transport layer.
*/
package presence

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// NotificationTimeFormat renders the notification timestamp as a 24-hour hour:minute clock.
const NotificationTimeFormat = "15:04"

// session holds what the Engine remembers about one connection after it joined.
type session struct {
	// user bound to the connection by its latest join.
	user UserID

	// display name recorded by the latest join, used in notifications.
	name string
}

// Engine is the presence and routing core.
// Every Dispatch call runs as one critical section over the registry and tracker pair.
type Engine struct {
	// registry maps online users to their connection.
	registry *Registry

	// tracker holds the per-user active-chat flag.
	tracker *Tracker

	// sessions stores join metadata keyed by connection.
	sessions map[ConnID]session

	// now supplies the notification timestamp.
	now func() time.Time

	// mu serializes Dispatch and the read-only queries.
	mu sync.Mutex

	// structured logger with Engine context.
	logger zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine constructs an Engine with empty state.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: NewRegistry(),
		tracker:  NewTracker(),
		sessions: make(map[ConnID]session),
		now:      time.Now,
		logger:   logx.Component("Engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Dispatch applies ev to the presence state and returns the commands the transport must
// execute, in order. It never fails; unknown users and connections fall back to defaults.
func (e *Engine) Dispatch(ev Event) []Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev := ev.(type) {
	case Join:
		return e.join(ev)
	case ChatInactive:
		e.tracker.SetActive(ev.UserID, false)
		e.logger.Debug().Str("user_id", string(ev.UserID)).Msg("User marked as inactive.")
		return nil
	case ChatMessage:
		return e.chatMessage(ev)
	case Typing:
		return []Command{Emit{
			Scope: ScopeRoomExcept,
			Room:  RoomFor(ev.SenderID, ev.ReceiverID),
			Conn:  ev.Conn,
			Event: EventTyping,
			Data:  TypingIndicator{SenderID: ev.SenderID},
		}}
	case Disconnect:
		return e.disconnect(ev)
	default:
		e.logger.Warn().Type("event", ev).Msg("Ignoring unsupported event.")
		return nil
	}
}

func (e *Engine) join(ev Join) []Command {
	e.sessions[ev.Conn] = session{user: ev.SenderID, name: ev.SenderName}
	e.registry.SetOnline(ev.SenderID, ev.Conn)

	room := PersonalRoomFor(ev.SenderID)
	if ev.ReceiverID != "" {
		room = RoomFor(ev.SenderID, ev.ReceiverID)
		e.tracker.SetActive(ev.SenderID, true)
	}

	e.logger.Info().
		Str("user_id", string(ev.SenderID)).
		Str("conn_id", string(ev.Conn)).
		Str("room", string(room)).
		Msg("User joined room.")

	return []Command{
		Subscribe{Conn: ev.Conn, Room: room},
		Emit{
			Scope: ScopeAll,
			Event: EventOnlineStatusUpdate,
			Data:  StatusUpdate{UserID: ev.SenderID, Status: StatusOnline},
		},
	}
}

func (e *Engine) chatMessage(ev ChatMessage) []Command {
	cmds := []Command{Emit{
		Scope: ScopeRoom,
		Room:  RoomFor(ev.SenderID, ev.ReceiverID),
		Event: EventChatMessage,
		Data:  ev.Raw,
	}}

	receiverConn, online := e.registry.Get(ev.ReceiverID)
	if !online || e.tracker.IsActive(ev.ReceiverID) {
		return cmds
	}

	senderName := e.sessions[ev.Conn].name
	if senderName == "" {
		senderName = UnknownSenderName
	}

	cmds = append(cmds, Emit{
		Scope: ScopeConn,
		Conn:  receiverConn,
		Event: EventGlobalNotification,
		Data: Notification{
			SenderID:   ev.SenderID,
			SenderName: senderName,
			ReceiverID: ev.ReceiverID,
			Message:    ev.ChatMessage,
			Timestamp:  e.now().Format(NotificationTimeFormat),
		},
	})

	e.logger.Info().
		Str("sender_id", string(ev.SenderID)).
		Str("receiver_id", string(ev.ReceiverID)).
		Msg("Global notification sent.")

	return cmds
}

func (e *Engine) disconnect(ev Disconnect) []Command {
	s, ok := e.sessions[ev.Conn]
	delete(e.sessions, ev.Conn)

	if !ok || s.user == "" {
		e.logger.Info().Str("conn_id", string(ev.Conn)).Msg("Unknown user disconnected.")
		return nil
	}

	e.registry.Remove(s.user)
	e.tracker.Clear(s.user)

	e.logger.Info().
		Str("user_id", string(s.user)).
		Str("conn_id", string(ev.Conn)).
		Msg("User disconnected.")

	return []Command{Emit{
		Scope: ScopeAll,
		Event: EventOnlineStatusUpdate,
		Data:  StatusUpdate{UserID: s.user, Status: StatusOffline},
	}}
}

// IsOnline reports whether user currently has a registered connection.
func (e *Engine) IsOnline(user UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.registry.Get(user)
	return ok
}

// IsActive reports the active-chat flag of user.
func (e *Engine) IsActive(user UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tracker.IsActive(user)
}

// ConnFor returns the connection registered for user.
func (e *Engine) ConnFor(user UserID) (ConnID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Get(user)
}

// OnlineUsers returns a sorted snapshot of the online users.
func (e *Engine) OnlineUsers() []UserID {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Users()
}
