/*
Package relay is the WebSocket transport around the presence engine.

This file turns raw inbound frames into presence events. Malformed frames never reach the
engine; they are answered with an error frame instead.
*/
package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
)

var validate = newValidator()

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// userRef is a user identifier on the wire. Clients send either strings or numbers.
type userRef string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (u *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userRef(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("user id must be a string or a number")
	}
	*u = userRef(n.String())
	return nil
}

func (u userRef) id() presence.UserID {
	return presence.UserID(u)
}

// peerRef is the optional peer of a join. Clients mark "no peer" with null, false or 0 as
// well as by omitting the field.
type peerRef userRef

// UnmarshalJSON maps false and numeric zero to no peer, otherwise behaves like userRef.
func (p *peerRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) {
		*p = ""
		return nil
	}

	var n float64
	if len(b) > 0 && b[0] != '"' && json.Unmarshal(b, &n) == nil && n == 0 {
		*p = ""
		return nil
	}

	var u userRef
	if err := u.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = peerRef(u)
	return nil
}

func (p peerRef) id() presence.UserID {
	return presence.UserID(p)
}

// messageText renders a chat body for notifications: strings as-is, other JSON as its text.
func messageText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

type joinPayload struct {
	SenderID   userRef `json:"senderId" validate:"required"`
	ReceiverID peerRef `json:"receiverId"`
	SenderName string  `json:"senderName"`
}

type chatInactivePayload struct {
	UserID userRef `json:"userId" validate:"required"`
}

type chatMessagePayload struct {
	SenderID    userRef         `json:"senderId" validate:"required"`
	ReceiverID  userRef         `json:"receiverId" validate:"required"`
	ChatMessage json.RawMessage `json:"chatMessage"`
}

type typingPayload struct {
	SenderID   userRef `json:"senderId" validate:"required"`
	ReceiverID userRef `json:"receiverId" validate:"required"`
}

// Decode parses one inbound frame from conn into a presence event.
func Decode(conn presence.ConnID, raw []byte) (presence.Event, *errs.CustomError) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	data := frame.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	switch frame.Event {
	case presence.EventJoin:
		var p joinPayload
		if customErr := bind(data, &p); customErr != nil {
			return nil, customErr
		}
		return presence.Join{
			Conn:       conn,
			SenderID:   p.SenderID.id(),
			ReceiverID: p.ReceiverID.id(),
			SenderName: p.SenderName,
		}, nil

	case presence.EventChatInactive:
		var p chatInactivePayload
		if customErr := bind(data, &p); customErr != nil {
			return nil, customErr
		}
		return presence.ChatInactive{Conn: conn, UserID: p.UserID.id()}, nil

	case presence.EventChatMessage:
		var p chatMessagePayload
		if customErr := bind(data, &p); customErr != nil {
			return nil, customErr
		}
		return presence.ChatMessage{
			Conn:        conn,
			SenderID:    p.SenderID.id(),
			ReceiverID:  p.ReceiverID.id(),
			ChatMessage: messageText(p.ChatMessage),
			Raw:         append(json.RawMessage(nil), data...),
		}, nil

	case presence.EventTyping:
		var p typingPayload
		if customErr := bind(data, &p); customErr != nil {
			return nil, customErr
		}
		return presence.Typing{
			Conn:       conn,
			SenderID:   p.SenderID.id(),
			ReceiverID: p.ReceiverID.id(),
		}, nil

	default:
		return nil, errs.NewError(errs.ErrUnknownEvent)
	}
}

// bind unmarshals data into dst and validates it.
func bind(data json.RawMessage, dst any) *errs.CustomError {
	if err := json.Unmarshal(data, dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.NewError(errs.ErrInvalidPayload, "unreadable")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return errs.NewError(errs.ErrInvalidPayload, strings.Join(fields, ", "))
}
