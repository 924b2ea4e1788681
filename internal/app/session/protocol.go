/*
Package session contains the core logic of the presence server: the in-memory
registries of connections, users, and rooms, the action validation pipeline,
the dispatcher that sequences each connection's lifecycle, and the event
broadcaster.

This file defines the wire protocol: action and event names, the inbound and
outbound envelopes, the validated action payloads, and the serialized shapes
that cross the boundary. Serialization is explicit per entity so that exactly
the intended fields are emitted; in particular a user's room back-reference is
never serialized, which keeps the output cycle-free.
*/
package session

import (
	"encoding/json"

	"pixly/internal/app/user"
)

// Action names accepted from clients.
const (
	ActionAuthenticate = "authenticate"
	ActionJoinRoom     = "joinRoom"
	ActionSendMessage  = "sendMessage"
	ActionUpdateStatus = "updateStatus"
)

// Event names emitted to clients.
const (
	EventAuthenticated    = "authenticated"
	EventJoinedRoom       = "joinedRoom"
	EventNewMessage       = "newMessage"
	EventUserLeftRoom     = "userLeftRoom"
	EventUserJoinedRoom   = "userJoinedRoom"
	EventUserStatusUpdate = "userStatusUpdate"
	EventError            = "error"

	// EventRoomStatusUpdate is reserved for whole-room broadcasts (including
	// the sender). No current action emits it.
	EventRoomStatusUpdate = "roomStatusUpdate"
)

// ActionEnvelope is the inbound frame: a named action plus its raw payload.
type ActionEnvelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventEnvelope is the outbound frame: a named event plus its payload.
type EventEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// AuthenticatePayload declares the connection's display identity.
type AuthenticatePayload struct {
	Name   string `json:"name" validate:"min=1,max=32"`
	Avatar string `json:"avatar" validate:"oneof=bulbasaur charmander squirtle"`
}

// JoinRoomPayload names the room to join; the first join by a name creates it.
type JoinRoomPayload struct {
	Name string `json:"name" validate:"min=1,max=32"`
}

// SendMessagePayload carries a chat message for the sender's current room.
type SendMessagePayload struct {
	Text string `json:"text" validate:"min=1,max=124"`
}

// UpdateStatusPayload replaces the sender's 2-D status. Coordinates are
// pointers so that 0 is distinguishable from an absent field.
type UpdateStatusPayload struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// UserData is the serialized shape of a user.
type UserData struct {
	Name     string       `json:"name"`
	Avatar   string       `json:"avatar"`
	SocketID string       `json:"socketId"`
	Status   *user.Status `json:"status,omitempty"`
}

// RoomData is the serialized shape of a room: its name plus the serialized
// membership keyed by connection id.
type RoomData struct {
	Name  string              `json:"name"`
	Users map[string]UserData `json:"users"`
}

// MessageData is the serialized shape of a chat message.
type MessageData struct {
	Text string   `json:"text"`
	User UserData `json:"user"`
}

// Event payload wrappers, one per event shape.
type (
	UserEventPayload    struct{ User UserData `json:"user"` }
	RoomEventPayload    struct{ Room RoomData `json:"room"` }
	MessageEventPayload struct{ Message MessageData `json:"message"` }
	ErrorEventPayload   struct{ Message string `json:"message"` }
)

// SerializeUser converts a User into its wire shape. The status is copied by
// value so later updates do not mutate an already-addressed event.
func SerializeUser(u *user.User) UserData {
	data := UserData{
		Name:     u.Name,
		Avatar:   u.Avatar,
		SocketID: u.SocketID,
	}

	if u.Status != nil {
		status := *u.Status
		data.Status = &status
	}

	return data
}

// SerializeRoom converts a Room and its current membership into its wire shape.
func SerializeRoom(r *Room) RoomData {
	users := make(map[string]UserData, len(r.users))
	for socketID, u := range r.users {
		users[socketID] = SerializeUser(u)
	}

	return RoomData{
		Name:  r.Name,
		Users: users,
	}
}

// SerializeMessage builds the wire shape of a message sent by the given user.
func SerializeMessage(text string, sender *user.User) MessageData {
	return MessageData{
		Text: text,
		User: SerializeUser(sender),
	}
}
