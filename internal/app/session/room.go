/*
Package session contains the core logic of the presence server.

This file defines the Room type and the room registry. A room is a named,
ephemeral broadcast group: the first join by a name creates it and removing
the last member deletes it in the same step, so the registry never holds an
empty room. Membership is keyed by connection id and a user belongs to at
most one room at a time.
*/
package session

import (
	"strings"

	"pixly/internal/app/user"
	"pixly/internal/pkg/errs"
)

// Room represents a named broadcast group and its current membership.
type Room struct {
	// Name is the room's unique identifier within the registry.
	Name string

	// users maps connection id to member. Insertion order is irrelevant.
	users map[string]*user.User
}

func newRoom(name string) *Room {
	return &Room{
		Name:  name,
		users: make(map[string]*user.User),
	}
}

// Count returns the number of members currently in the room.
func (r *Room) Count() int {
	return len(r.users)
}

// isEmpty reports whether the room has no members left.
func (r *Room) isEmpty() bool {
	return len(r.users) == 0
}

// hasMember reports whether the connection id is already part of the room.
func (r *Room) hasMember(socketID string) bool {
	_, ok := r.users[socketID]
	return ok
}

// hasUserNamed reports whether any member uses the given display name,
// compared case-insensitively.
func (r *Room) hasUserNamed(name string) bool {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			return true
		}
	}
	return false
}

// roomRegistry owns the set of active rooms. It is only ever touched by the
// dispatcher goroutine, so it carries no locking of its own.
type roomRegistry struct {
	rooms map[string]*Room

	// uniqueNames enforces per-room display-name uniqueness at join time.
	uniqueNames bool
}

func newRoomRegistry(uniqueNames bool) *roomRegistry {
	return &roomRegistry{
		rooms:       make(map[string]*Room),
		uniqueNames: uniqueNames,
	}
}

// getOrCreate returns the room with the given name, creating and storing an
// empty one if it does not exist yet.
func (reg *roomRegistry) getOrCreate(name string) *Room {
	if room, ok := reg.rooms[name]; ok {
		return room
	}

	room := newRoom(name)
	reg.rooms[name] = room
	return room
}

// get returns the room with the given name, or nil.
func (reg *roomRegistry) get(name string) *Room {
	return reg.rooms[name]
}

// delete removes the room from the registry if present.
func (reg *roomRegistry) delete(name string) {
	delete(reg.rooms, name)
}

// count returns the number of active rooms.
func (reg *roomRegistry) count() int {
	return len(reg.rooms)
}

// join adds the user to the room's membership and points the user's room
// reference at it, resetting the user's status to the origin. Preconditions:
// the user must not belong to any room, the connection id must not already be
// a member, and under the unique-name policy no member may share the user's
// display name. Each failure is a distinct recoverable error.
func (reg *roomRegistry) join(room *Room, u *user.User) *errs.CustomError {
	if u.InRoom() {
		return errs.NewError(errs.ErrUserInRoom)
	}

	if room.hasMember(u.SocketID) {
		return errs.NewError(errs.ErrAlreadyInRoom)
	}

	if reg.uniqueNames && room.hasUserNamed(u.Name) {
		return errs.NewError(errs.ErrNameTaken)
	}

	room.users[u.SocketID] = u
	u.RoomName = room.Name
	u.UpdateStatus(0, 0)

	return nil
}

// leave removes the user from the room and clears the user's room reference.
// If that empties the room, the room is deleted from the registry in the same
// step. It reports whether the room was deleted.
func (reg *roomRegistry) leave(room *Room, u *user.User) bool {
	delete(room.users, u.SocketID)
	u.RoomName = ""

	if room.isEmpty() {
		reg.delete(room.Name)
		return true
	}

	return false
}
