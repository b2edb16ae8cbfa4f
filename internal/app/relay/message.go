/*
Package relay is the WebSocket transport around the presence engine.

This file defines the wire envelope. Every frame in either direction is a JSON object
{"event": "<name>", "data": <payload>}.
*/
package relay

import (
	"encoding/json"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
)

// EventError is the outbound event carrying a CustomError to a single connection.
const EventError presence.EventName = "error"

// Frame is one event on the wire.
type Frame struct {
	Event presence.EventName `json:"event"`
	Data  json.RawMessage    `json:"data,omitempty"`
}

// outboundFrame is the encoding form of Frame, with a payload that is not yet serialized.
type outboundFrame struct {
	Event presence.EventName `json:"event"`
	Data  any                `json:"data,omitempty"`
}

// EncodeFrame serializes an outbound event.
func EncodeFrame(event presence.EventName, data any) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: event, Data: data})
}

// encodeError serializes customErr as an EventError frame.
func encodeError(customErr *errs.CustomError) ([]byte, error) {
	return EncodeFrame(EventError, customErr)
}
