/*
Package user contains core data structures related to participant identity and presence.

It defines the basic representation of a participant within the presence system (the User struct)
along with its mutable 2-D Status, used for passing user information both internally and to clients.
*/
package user

// Avatar values a client may authenticate with.
const (
	AvatarBulbasaur  = "bulbasaur"
	AvatarCharmander = "charmander"
	AvatarSquirtle   = "squirtle"
)

// Avatars lists every accepted avatar value, in protocol order.
var Avatars = []string{AvatarBulbasaur, AvatarCharmander, AvatarSquirtle}

// Status is a user's 2-D presence coordinate. It is replaced wholesale on every
// status update; there is no history.
type Status struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User represents an authenticated participant bound to one live connection.
type User struct {

	// SocketID is the connection identifier the user is bound to. It is stable
	// for the user's lifetime and is the join key between the user registry
	// and room membership.
	SocketID string

	// Name is the display name declared at authentication (first identity wins).
	Name string

	// Avatar is one of the fixed avatar values above.
	Avatar string

	// Status is nil until the user first joins a room or updates their position.
	Status *Status

	// RoomName is the name of the room the user currently belongs to, or "".
	// It is a lookup key into the room registry, not an owning reference.
	RoomName string
}

// New constructs a User for the given connection with no status and no room.
func New(socketID, name, avatar string) *User {
	return &User{
		SocketID: socketID,
		Name:     name,
		Avatar:   avatar,
	}
}

// UpdateStatus overwrites the user's status with the given coordinates,
// materializing it on first use.
func (u *User) UpdateStatus(x, y float64) {
	if u.Status == nil {
		u.Status = &Status{}
	}
	u.Status.X = x
	u.Status.Y = y
}

// InRoom reports whether the user currently belongs to a room.
func (u *User) InRoom() bool {
	return u.RoomName != ""
}
