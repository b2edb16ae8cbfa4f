/*
Package presence contains the presence and routing core of the relay.

This file defines the identifiers shared by the package and the pure functions that derive
room labels from one or two user IDs. Rooms are never stored; they are delivery-grouping keys.
*/
package presence

import "strings"

const (
	// roomSeparator joins the two sorted user IDs of a pair room.
	roomSeparator = "-"

	// personalRoomSuffix marks the personal (global lane) room of a single user.
	personalRoomSuffix = "-global"
)

// UserID is the logical identity of a chat participant, supplied by the client at join time.
type UserID string

// ConnID identifies one live transport connection.
type ConnID string

// Room is a delivery-grouping label derived from one or two user IDs.
type Room string

// RoomFor returns the canonical room for a pair of users. The result does not depend on
// argument order.
func RoomFor(a, b UserID) Room {
	if b < a {
		a, b = b, a
	}

	return Room(strings.Join([]string{string(a), string(b)}, roomSeparator))
}

// PersonalRoomFor returns the room used when a user joins without a peer.
func PersonalRoomFor(a UserID) Room {
	return Room(string(a) + personalRoomSuffix)
}
