/*
Package session contains the core logic of the presence server.

This file defines the Notifier collaborator interface required from the
transport layer and the Broadcaster, which translates dispatcher decisions
into addressed outbound events.
*/
package session

// Notifier is what the session core requires from the transport layer:
// unicast and group delivery plus group membership maintenance. Sends are
// fire-and-forget; a delivery failure must never surface back into the
// dispatcher's state mutations.
type Notifier interface {
	// Send delivers an event to a single connection.
	Send(socketID, event string, payload any)

	// SendToGroup delivers an event to every connection in the named group,
	// excluding exceptID when non-empty. Exclusion is by connection id, not
	// identity: a user with two connections still receives events on the
	// other one.
	SendToGroup(group, event string, payload any, exceptID string)

	// AddToGroup adds the connection to the named group.
	AddToGroup(socketID, group string)

	// RemoveFromGroup removes the connection from the named group.
	RemoveFromGroup(socketID, group string)
}

// Broadcaster addresses named events to one of three targets: the acting
// connection only, every other member of a room, or the whole room. Group
// membership is maintained alongside the room registry, so a send always
// resolves the membership as it stands at send time.
type Broadcaster struct {
	notifier Notifier
}

// NewBroadcaster returns a Broadcaster delivering through the given Notifier.
func NewBroadcaster(notifier Notifier) *Broadcaster {
	return &Broadcaster{notifier: notifier}
}

// ToSender emits an event to the acting connection only.
func (b *Broadcaster) ToSender(socketID, event string, payload any) {
	b.notifier.Send(socketID, event, payload)
}

// ToRoomExceptSender emits an event to every member of the room except the
// acting connection.
func (b *Broadcaster) ToRoomExceptSender(roomName, senderID, event string, payload any) {
	b.notifier.SendToGroup(roomName, event, payload, senderID)
}

// ToRoom emits an event to every member of the room, sender included. No
// current action uses this target; the protocol reserves roomStatusUpdate
// for it.
func (b *Broadcaster) ToRoom(roomName, event string, payload any) {
	b.notifier.SendToGroup(roomName, event, payload, "")
}

// Enter mirrors a room join into the transport's group membership.
func (b *Broadcaster) Enter(socketID, roomName string) {
	b.notifier.AddToGroup(socketID, roomName)
}

// Exit mirrors a room leave into the transport's group membership.
func (b *Broadcaster) Exit(socketID, roomName string) {
	b.notifier.RemoveFromGroup(socketID, roomName)
}
