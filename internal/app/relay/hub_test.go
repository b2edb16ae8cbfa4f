package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

var fixedNow = time.Date(2024, 3, 9, 21, 7, 45, 0, time.UTC)

func startHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub(presence.NewEngine(presence.WithClock(func() time.Time { return fixedNow })))
	go h.Run()
	t.Cleanup(h.Shutdown)

	return h
}

// newTestClient registers an in-process client with a send queue of the given size.
func newTestClient(t *testing.T, h *Hub, id string, queue int) *Client {
	t.Helper()

	c := &Client{
		hub:    h,
		id:     presence.ConnID(id),
		send:   make(chan []byte, queue),
		logger: logx.Component("test"),
	}
	require.True(t, h.Register(c))

	return c
}

// sendRaw feeds one raw frame from c through decoding into the hub.
func sendRaw(t *testing.T, c *Client, raw string) {
	t.Helper()
	require.True(t, c.hub.submit(c.process([]byte(raw))))
}

// barrier returns once every previously submitted item has been fully processed.
func barrier(t *testing.T, h *Hub) {
	t.Helper()
	require.True(t, h.submit(inbound{client: &Client{id: "barrier"}}))
}

func drain(c *Client) []Frame {
	var frames []Frame
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return frames
			}
			var f Frame
			if err := json.Unmarshal(b, &f); err == nil {
				frames = append(frames, f)
			}
		default:
			return frames
		}
	}
}

func events(frames []Frame) []presence.EventName {
	names := make([]presence.EventName, 0, len(frames))
	for _, f := range frames {
		names = append(names, f.Event)
	}
	return names
}

func TestHub_JoinBroadcastsPresenceToEveryone(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bystander := newTestClient(t, h, "c-bystander", 16)

	sendRaw(t, alice, `{"event":"join","data":{"senderId":"alice","senderName":"Alice"}}`)
	barrier(t, h)

	for _, c := range []*Client{alice, bystander} {
		frames := drain(c)
		require.Len(t, frames, 1)
		assert.Equal(t, presence.EventOnlineStatusUpdate, frames[0].Event)
		assert.JSONEq(t, `{"userId":"alice","status":"online"}`, string(frames[0].Data))
	}

	assert.ElementsMatch(t, []presence.Room{"alice-global"}, h.Rooms(alice.ID()))
	assert.True(t, h.Engine().IsOnline("alice"))
}

func TestHub_ChatMessage_NotifiesInactiveReceiver(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	sendRaw(t, alice, `{"event":"join","data":{"senderId":"alice","receiverId":"bob","senderName":"Alice"}}`)
	sendRaw(t, bob, `{"event":"join","data":{"senderId":"bob","senderName":"Bob"}}`)
	sendRaw(t, bob, `{"event":"join","data":{"senderId":"bob","receiverId":"alice","senderName":"Bob"}}`)
	sendRaw(t, bob, `{"event":"chat-inactive","data":{"userId":"bob"}}`)
	barrier(t, h)
	drain(alice)
	drain(bob)

	sendRaw(t, alice, `{"event":"chat-message","data":{"senderId":"alice","receiverId":"bob","chatMessage":"hi","clientId":"m-1"}}`)
	barrier(t, h)

	aliceFrames := drain(alice)
	require.Len(t, aliceFrames, 1)
	assert.Equal(t, presence.EventChatMessage, aliceFrames[0].Event)

	bobFrames := drain(bob)
	require.Equal(t, []presence.EventName{presence.EventChatMessage, presence.EventGlobalNotification}, events(bobFrames))
	assert.JSONEq(t,
		`{"senderId":"alice","receiverId":"bob","chatMessage":"hi","clientId":"m-1"}`,
		string(bobFrames[0].Data))
	assert.JSONEq(t,
		`{"senderId":"alice","senderName":"Alice","receiverId":"bob","message":"hi","timestamp":"21:07"}`,
		string(bobFrames[1].Data))
}

func TestHub_ChatMessage_ActiveReceiverGetsNoNotification(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	sendRaw(t, alice, `{"event":"join","data":{"senderId":"alice","receiverId":"bob","senderName":"Alice"}}`)
	sendRaw(t, bob, `{"event":"join","data":{"senderId":"bob","receiverId":"alice","senderName":"Bob"}}`)
	barrier(t, h)
	drain(alice)
	drain(bob)

	sendRaw(t, alice, `{"event":"chat-message","data":{"senderId":"alice","receiverId":"bob","chatMessage":"hi"}}`)
	barrier(t, h)

	assert.Equal(t, []presence.EventName{presence.EventChatMessage}, events(drain(bob)))
	assert.Equal(t, []presence.EventName{presence.EventChatMessage}, events(drain(alice)))
}

func TestHub_TypingIsNotEchoed(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	sendRaw(t, alice, `{"event":"join","data":{"senderId":"alice","receiverId":"bob"}}`)
	sendRaw(t, bob, `{"event":"join","data":{"senderId":"bob","receiverId":"alice"}}`)
	barrier(t, h)
	drain(alice)
	drain(bob)

	sendRaw(t, alice, `{"event":"typing","data":{"senderId":"alice","receiverId":"bob"}}`)
	barrier(t, h)

	bobFrames := drain(bob)
	require.Len(t, bobFrames, 1)
	assert.Equal(t, presence.EventTyping, bobFrames[0].Event)
	assert.JSONEq(t, `{"senderId":"alice"}`, string(bobFrames[0].Data))
	assert.Empty(t, drain(alice))
}

func TestHub_UnregisterBroadcastsOffline(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	sendRaw(t, alice, `{"event":"join","data":{"senderId":"alice","receiverId":"bob"}}`)
	barrier(t, h)
	drain(bob)
	require.Equal(t, Stats{Connections: 2, Rooms: 1}, h.Stats())

	h.Unregister(alice)
	barrier(t, h)

	bobFrames := drain(bob)
	require.Len(t, bobFrames, 1)
	assert.JSONEq(t, `{"userId":"alice","status":"offline"}`, string(bobFrames[0].Data))

	assert.Equal(t, []presence.EventName{presence.EventOnlineStatusUpdate}, events(drain(alice)))
	_, open := <-alice.send
	assert.False(t, open, "queue of a removed client is closed")
	assert.Equal(t, Stats{Connections: 1, Rooms: 0}, h.Stats())
	assert.False(t, h.Engine().IsOnline("alice"))
	assert.False(t, h.Engine().IsActive("alice"))
}

func TestHub_UnregisterWithoutJoinIsSilent(t *testing.T) {
	h := startHub(t)
	anon := newTestClient(t, h, "c-anon", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	h.Unregister(anon)
	h.Unregister(anon)
	barrier(t, h)

	assert.Empty(t, drain(bob))
	assert.Equal(t, 1, h.Stats().Connections)
}

func TestHub_InvalidFrameAnswersSenderOnly(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(t, h, "c-alice", 16)
	bob := newTestClient(t, h, "c-bob", 16)

	sendRaw(t, alice, `{"event":"typing","data":{"senderId":"alice"}}`)
	barrier(t, h)

	frames := drain(alice)
	require.Len(t, frames, 1)
	assert.Equal(t, EventError, frames[0].Event)

	var payload errs.CustomError
	require.NoError(t, json.Unmarshal(frames[0].Data, &payload))
	assert.Equal(t, errs.ErrInvalidPayload, payload.Code)
	assert.Equal(t, "Invalid payload: receiverId.", payload.Message)

	assert.Empty(t, drain(bob))
}

func TestHub_FullQueueEvictsConnection(t *testing.T) {
	h := startHub(t)
	watcher := newTestClient(t, h, "c-watcher", 16)
	slow := newTestClient(t, h, "c-slow", 0)

	sendRaw(t, slow, `{"event":"join","data":{"senderId":"slow"}}`)
	barrier(t, h)

	assert.Equal(t, []presence.EventName{
		presence.EventOnlineStatusUpdate,
		presence.EventOnlineStatusUpdate,
	}, events(drain(watcher)))
	assert.False(t, h.Engine().IsOnline("slow"))
	assert.Equal(t, 1, h.Stats().Connections)
}

func TestHub_ShutdownClosesQueues(t *testing.T) {
	h := NewHub(presence.NewEngine())
	go h.Run()

	c := newTestClient(t, h, "c-1", 1)
	h.Shutdown()

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, h.Register(&Client{id: "late", send: make(chan []byte, 1)}))
	assert.False(t, h.submit(inbound{client: c}))
	assert.NotPanics(t, h.Stop)
}
