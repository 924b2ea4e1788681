/*
Package ws is the websocket transport layer. It owns the live connections,
the named broadcast groups used for room addressing, and the per-connection
read/write pumps. The session core talks to it only through the
session.Notifier interface; deliveries are fire-and-forget.
*/
package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pixly/internal/app/session"
	"pixly/internal/pkg/logx"
)

// ActionSink is the inbound half of the session core as the transport sees
// it: connection lifecycle notifications plus decoded actions.
type ActionSink interface {
	Connect(socketID string)
	Action(socketID, action string, payload json.RawMessage)
	Disconnect(socketID string)
}

// Gateway tracks live clients and the named groups they belong to, and
// implements session.Notifier on top of them.
type Gateway struct {
	// mu protects clients and groups. Group mutation happens on the session
	// dispatcher goroutine while registration happens on connection handler
	// goroutines, so the maps need their own lock.
	mu sync.RWMutex

	// clients maps connection id to its client.
	clients map[string]*Client

	// groups maps group name to member clients, keyed by connection id.
	groups map[string]map[string]*Client

	// structured logger with Gateway context.
	logger zerolog.Logger
}

// NewGateway constructs an empty Gateway.
func NewGateway() *Gateway {
	gatewayLogger := logx.Logger().With().Str("component", "Gateway").Logger()

	return &Gateway{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
		logger:  gatewayLogger,
	}
}

// Accept takes ownership of an upgraded websocket connection: it mints the
// connection id, registers the client, starts the write pump, announces the
// connection to the sink, and then blocks in the read pump until the
// connection closes.
func (g *Gateway) Accept(conn *websocket.Conn, sink ActionSink) {
	socketID := uuid.NewString()

	client := newClient(g, sink, conn, socketID)

	g.mu.Lock()
	g.clients[socketID] = client
	g.mu.Unlock()

	go client.WritePump()

	g.logger.Info().Str("socket_id", socketID).Msg("Client connected")

	sink.Connect(socketID)

	client.ReadPump()
}

// unregister drops the client from the connection registry and from every
// group it still belongs to. Safe to call more than once.
func (g *Gateway) unregister(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.clients[client.socketID]; !ok || current != client {
		return
	}
	delete(g.clients, client.socketID)

	for name, members := range g.groups {
		delete(members, client.socketID)
		if len(members) == 0 {
			delete(g.groups, name)
		}
	}
}

// ClientCount returns the number of live connections.
func (g *Gateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.clients)
}

// Send delivers an event to a single connection. Unknown connection ids are
// ignored; the session core may address a connection that just closed.
func (g *Gateway) Send(socketID, event string, payload any) {
	g.mu.RLock()
	client, ok := g.clients[socketID]
	g.mu.RUnlock()

	if !ok {
		return
	}

	g.deliver(client, event, payload)
}

// SendToGroup delivers an event to every member of the named group, skipping
// exceptID when non-empty. Membership is read under the lock at send time.
func (g *Gateway) SendToGroup(group, event string, payload any, exceptID string) {
	g.mu.RLock()
	members := g.groups[group]
	targets := make([]*Client, 0, len(members))
	for socketID, client := range members {
		if socketID == exceptID {
			continue
		}
		targets = append(targets, client)
	}
	g.mu.RUnlock()

	for _, client := range targets {
		g.deliver(client, event, payload)
	}
}

// AddToGroup adds the connection to the named group, creating the group on
// first use.
func (g *Gateway) AddToGroup(socketID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, ok := g.clients[socketID]
	if !ok {
		return
	}

	members, ok := g.groups[group]
	if !ok {
		members = make(map[string]*Client)
		g.groups[group] = members
	}
	members[socketID] = client
}

// RemoveFromGroup removes the connection from the named group, deleting the
// group when it empties.
func (g *Gateway) RemoveFromGroup(socketID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.groups[group]
	if !ok {
		return
	}

	delete(members, socketID)
	if len(members) == 0 {
		delete(g.groups, group)
	}
}

// deliver marshals the event envelope and queues it on the client. Queue
// overflow drops the frame with a warning; delivery is fire-and-forget and
// never reaches back into session state.
func (g *Gateway) deliver(client *Client, event string, payload any) {
	frame, err := json.Marshal(session.EventEnvelope{Event: event, Payload: payload})
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("event", event).
			Msg("Error marshaling event for delivery")
		return
	}

	if !client.enqueue(frame) {
		g.logger.Warn().
			Str("socket_id", client.socketID).
			Str("event", event).
			Msg("Client send queue full or closed, dropping event")
	}
}
