/*
Package relay is the WebSocket transport around the presence engine.

This file defines the Hub. Its Run loop is the single logical thread of the relay: it takes
one registration, inbound event or disconnect at a time, passes it to the presence engine and
executes the returned commands (group membership and emits) before taking the next one.
*/
package relay

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"chatrelay/internal/app/presence"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

// inbound is one unit of work produced by a client's ReadPump.
// Exactly one of event and err is set.
type inbound struct {
	client *Client
	event  presence.Event
	err    *errs.CustomError
}

// Stats is a point-in-time view of the transport.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// Hub owns the live connections and their group memberships.
type Hub struct {
	// engine decides routing and owns presence state.
	engine *presence.Engine

	// clients maps connection handles to live clients.
	clients map[presence.ConnID]*Client

	// groups maps a room to the connections subscribed to it.
	groups map[presence.Room]map[presence.ConnID]struct{}

	// memberships maps a connection to the rooms it joined, for cleanup.
	memberships map[presence.ConnID]map[presence.Room]struct{}

	// evicted queues clients whose send queue overflowed during apply.
	evicted []*Client

	// mu guards clients and groups for readers outside the Run goroutine.
	mu sync.RWMutex

	// register, unregister and inbound are unbuffered so one connection's work is
	// processed in the order its ReadPump produced it.
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound

	// stop ends Run; done is closed when Run has returned.
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub routing through engine. Start it with Run.
func NewHub(engine *presence.Engine) *Hub {
	return &Hub{
		engine:      engine,
		clients:     make(map[presence.ConnID]*Client),
		groups:      make(map[presence.Room]map[presence.ConnID]struct{}),
		memberships: make(map[presence.ConnID]map[presence.Room]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inbound),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logx.Component("Hub"),
	}
}

// Engine returns the presence engine behind the hub.
func (h *Hub) Engine() *presence.Engine {
	return h.engine
}

// Run processes hub work until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)

	h.logger.Info().Msg("Hub loop started.")

	for {
		select {
		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.remove(client)

		case in := <-h.inbound:
			h.handle(in)

		case <-h.stop:
			h.closeAll()
			h.logger.Info().Msg("Hub loop stopped.")
			return
		}

		h.drainEvictions()
	}
}

// Register attaches client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister detaches client and raises its disconnect. Unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// submit queues inbound work. It returns false if the hub has stopped.
func (h *Hub) submit(in inbound) bool {
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

// Stop ends the Run loop and closes every client queue. It does not wait.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Shutdown stops the hub and waits for Run to return.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")
	h.Stop()
	<-h.done
	h.logger.Info().Msg("Hub shutdown complete.")
}

// Stats returns connection and room counts.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{Connections: len(h.clients), Rooms: len(h.groups)}
}

// Rooms returns the rooms conn is subscribed to.
func (h *Hub) Rooms(conn presence.ConnID) []presence.Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.Keys(h.memberships[conn])
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("conn_id", string(client.id)).
		Int("total_connections", total).
		Msg("Connection registered.")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.id)
	for room := range h.memberships[client.id] {
		members := h.groups[room]
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.groups, room)
		}
	}
	delete(h.memberships, client.id)
	total := len(h.clients)
	h.mu.Unlock()

	close(client.send)

	h.logger.Info().
		Str("conn_id", string(client.id)).
		Int("total_connections", total).
		Msg("Connection unregistered.")

	h.apply(h.engine.Dispatch(presence.Disconnect{Conn: client.id}))
}

func (h *Hub) handle(in inbound) {
	if _, ok := h.clients[in.client.id]; !ok {
		return
	}

	if in.err != nil {
		frame, err := encodeError(in.err)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to encode error frame.")
			return
		}
		h.deliver(in.client, frame)
		return
	}

	h.apply(h.engine.Dispatch(in.event))
}

// apply executes engine commands in order.
func (h *Hub) apply(cmds []presence.Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case presence.Subscribe:
			h.subscribe(cmd.Conn, cmd.Room)
		case presence.Emit:
			h.emit(cmd)
		}
	}
}

func (h *Hub) subscribe(conn presence.ConnID, room presence.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; !ok {
		return
	}

	if h.groups[room] == nil {
		h.groups[room] = make(map[presence.ConnID]struct{})
	}
	h.groups[room][conn] = struct{}{}

	if h.memberships[conn] == nil {
		h.memberships[conn] = make(map[presence.Room]struct{})
	}
	h.memberships[conn][room] = struct{}{}
}

func (h *Hub) emit(cmd presence.Emit) {
	frame, err := EncodeFrame(cmd.Event, cmd.Data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(cmd.Event)).Msg("Failed to encode frame.")
		return
	}

	switch cmd.Scope {
	case presence.ScopeAll:
		for _, client := range h.clients {
			h.deliver(client, frame)
		}

	case presence.ScopeRoom, presence.ScopeRoomExcept:
		for conn := range h.groups[cmd.Room] {
			if cmd.Scope == presence.ScopeRoomExcept && conn == cmd.Conn {
				continue
			}
			if client, ok := h.clients[conn]; ok {
				h.deliver(client, frame)
			}
		}

	case presence.ScopeConn:
		if client, ok := h.clients[cmd.Conn]; ok {
			h.deliver(client, frame)
		}

	default:
		h.logger.Warn().Stringer("scope", cmd.Scope).Msg("Unknown emit scope.")
	}
}

// deliver queues frame for client without blocking. A full queue evicts the client.
func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		h.logger.Warn().
			Str("conn_id", string(client.id)).
			Msg("Send queue full, evicting connection.")
		h.evicted = append(h.evicted, client)
	}
}

func (h *Hub) drainEvictions() {
	for len(h.evicted) > 0 {
		client := h.evicted[0]
		h.evicted = h.evicted[1:]
		h.remove(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	clear(h.groups)
	clear(h.memberships)
}
