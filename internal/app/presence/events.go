/*
Package presence contains the presence and routing core of the relay.

This file defines the closed set of inbound events the Engine reacts to, the commands it
returns for the transport layer to execute, and the payloads carried by outbound events.
*/
package presence

import "encoding/json"

// EventName is the wire name of an inbound or outbound event.
type EventName string

const (
	// EventJoin binds a connection to a user and subscribes it to a room.
	EventJoin EventName = "join"

	// EventChatInactive signals that the user closed the chat surface.
	EventChatInactive EventName = "chat-inactive"

	// EventChatMessage carries a chat message between two users.
	EventChatMessage EventName = "chat-message"

	// EventTyping carries a typing indicator between two users.
	EventTyping EventName = "typing"

	// EventOnlineStatusUpdate announces a presence change to every connection.
	EventOnlineStatusUpdate EventName = "online-status-update"

	// EventGlobalNotification alerts a receiver that is online but not viewing a chat.
	EventGlobalNotification EventName = "global-notification"
)

// Status is the presence value carried by EventOnlineStatusUpdate.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// UnknownSenderName replaces a display name that was never recorded for the sending connection.
const UnknownSenderName = "Unknown"

// Event is one inbound event for the Engine. The set is closed to this package.
type Event interface {
	// Source is the connection the event arrived on.
	Source() ConnID

	isEvent()
}

// Join is sent when a client opens the app (no receiver) or a specific chat.
type Join struct {
	Conn       ConnID
	SenderID   UserID
	ReceiverID UserID
	SenderName string
}

// ChatInactive is sent when a client closes its chat surface.
type ChatInactive struct {
	Conn   ConnID
	UserID UserID
}

// ChatMessage is a message from SenderID to ReceiverID.
// Raw is the full client payload and is relayed to the pair room unmodified.
type ChatMessage struct {
	Conn        ConnID
	SenderID    UserID
	ReceiverID  UserID
	ChatMessage string
	Raw         json.RawMessage
}

// Typing is a typing indicator from SenderID to ReceiverID.
type Typing struct {
	Conn       ConnID
	SenderID   UserID
	ReceiverID UserID
}

// Disconnect is raised by the transport when a connection closes.
type Disconnect struct {
	Conn ConnID
}

func (e Join) Source() ConnID         { return e.Conn }
func (e ChatInactive) Source() ConnID { return e.Conn }
func (e ChatMessage) Source() ConnID  { return e.Conn }
func (e Typing) Source() ConnID       { return e.Conn }
func (e Disconnect) Source() ConnID   { return e.Conn }

func (Join) isEvent()         {}
func (ChatInactive) isEvent() {}
func (ChatMessage) isEvent()  {}
func (Typing) isEvent()       {}
func (Disconnect) isEvent()   {}

// Scope selects the recipients of an Emit command.
type Scope int

const (
	// ScopeAll delivers to every connected connection.
	ScopeAll Scope = iota

	// ScopeRoom delivers to every member of Room, the originating connection included.
	ScopeRoom

	// ScopeRoomExcept delivers to every member of Room except Conn.
	ScopeRoomExcept

	// ScopeConn delivers to Conn only.
	ScopeConn
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeRoom:
		return "room"
	case ScopeRoomExcept:
		return "room_except"
	case ScopeConn:
		return "conn"
	default:
		return "unknown"
	}
}

// Command is an instruction for the transport layer, produced by Engine.Dispatch.
type Command interface {
	isCommand()
}

// Subscribe adds Conn to the delivery group Room.
type Subscribe struct {
	Conn ConnID
	Room Room
}

// Emit delivers Event with Data to the recipients selected by Scope.
// Room is used by ScopeRoom and ScopeRoomExcept, Conn by ScopeRoomExcept and ScopeConn.
type Emit struct {
	Scope Scope
	Room  Room
	Conn  ConnID
	Event EventName
	Data  any
}

func (Subscribe) isCommand() {}
func (Emit) isCommand()      {}

// StatusUpdate is the payload of EventOnlineStatusUpdate.
type StatusUpdate struct {
	UserID UserID `json:"userId"`
	Status Status `json:"status"`
}

// Notification is the payload of EventGlobalNotification.
type Notification struct {
	SenderID   UserID `json:"senderId"`
	SenderName string `json:"senderName"`
	ReceiverID UserID `json:"receiverId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// TypingIndicator is the payload of the outbound EventTyping.
type TypingIndicator struct {
	SenderID UserID `json:"senderId"`
}
