package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomFor(t *testing.T) {
	tests := []struct {
		name string
		a, b UserID
		want Room
	}{
		{name: "already sorted", a: "alice", b: "bob", want: "alice-bob"},
		{name: "reversed", a: "bob", b: "alice", want: "alice-bob"},
		{name: "numeric strings sort lexicographically", a: "10", b: "9", want: "10-9"},
		{name: "same user", a: "alice", b: "alice", want: "alice-alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoomFor(tt.a, tt.b))
		})
	}
}

func TestRoomFor_Symmetric(t *testing.T) {
	ids := []UserID{"", "a", "b", "alice", "Alice", "42", "user-1", "user-10", "ü"}

	for _, a := range ids {
		for _, b := range ids {
			assert.Equal(t, RoomFor(a, b), RoomFor(b, a), "%q/%q", a, b)
		}
	}
}

func TestPersonalRoomFor(t *testing.T) {
	assert.Equal(t, Room("alice-global"), PersonalRoomFor("alice"))
	assert.NotEqual(t, PersonalRoomFor("alice"), RoomFor("alice", "bob"))
}
