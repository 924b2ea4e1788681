package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixly/internal/app/user"
	"pixly/internal/pkg/errs"
)

func TestGetOrCreateReturnsSameRoom(t *testing.T) {
	reg := newRoomRegistry(false)

	first := reg.getOrCreate("lobby")
	second := reg.getOrCreate("lobby")

	assert.Same(t, first, second)
	assert.Equal(t, 1, reg.count())
}

func TestJoinSetsBackReferenceAndResetsStatus(t *testing.T) {
	reg := newRoomRegistry(false)
	room := reg.getOrCreate("lobby")

	u := user.New("s1", "alice", user.AvatarBulbasaur)
	u.UpdateStatus(9, 9)

	require.Nil(t, reg.join(room, u))

	assert.True(t, room.hasMember("s1"))
	assert.Equal(t, "lobby", u.RoomName)
	require.NotNil(t, u.Status)
	assert.Zero(t, u.Status.X)
	assert.Zero(t, u.Status.Y)
}

func TestJoinRejectsUserAlreadyInARoom(t *testing.T) {
	reg := newRoomRegistry(false)
	lobby := reg.getOrCreate("lobby")
	den := reg.getOrCreate("den")

	u := user.New("s1", "alice", user.AvatarBulbasaur)
	require.Nil(t, reg.join(lobby, u))

	err := reg.join(den, u)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrUserInRoom, err.Code)
}

func TestJoinRejectsDuplicateConnectionID(t *testing.T) {
	reg := newRoomRegistry(false)
	room := reg.getOrCreate("lobby")

	u := user.New("s1", "alice", user.AvatarBulbasaur)
	require.Nil(t, reg.join(room, u))

	// A second user object on the same connection id must be rejected even
	// though it carries no room reference of its own.
	ghost := user.New("s1", "mallory", user.AvatarSquirtle)
	err := reg.join(room, ghost)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrAlreadyInRoom, err.Code)
}

func TestJoinUniqueNamePolicy(t *testing.T) {
	reg := newRoomRegistry(true)
	room := reg.getOrCreate("lobby")

	require.Nil(t, reg.join(room, user.New("s1", "Alice", user.AvatarBulbasaur)))

	err := reg.join(room, user.New("s2", "alice", user.AvatarCharmander))
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrNameTaken, err.Code)
	assert.Equal(t, 1, room.Count())

	// A different name is fine, and the permissive default allows duplicates.
	require.Nil(t, reg.join(room, user.New("s3", "bob", user.AvatarSquirtle)))

	permissive := newRoomRegistry(false)
	open := permissive.getOrCreate("open")
	require.Nil(t, permissive.join(open, user.New("s4", "carol", user.AvatarBulbasaur)))
	require.Nil(t, permissive.join(open, user.New("s5", "carol", user.AvatarBulbasaur)))
}

func TestLeaveDeletesEmptiedRoom(t *testing.T) {
	reg := newRoomRegistry(false)
	room := reg.getOrCreate("lobby")

	u1 := user.New("s1", "alice", user.AvatarBulbasaur)
	u2 := user.New("s2", "bob", user.AvatarCharmander)
	require.Nil(t, reg.join(room, u1))
	require.Nil(t, reg.join(room, u2))

	deleted := reg.leave(room, u1)
	assert.False(t, deleted)
	assert.Empty(t, u1.RoomName)
	assert.NotNil(t, reg.get("lobby"))

	deleted = reg.leave(room, u2)
	assert.True(t, deleted)
	assert.Nil(t, reg.get("lobby"))
	assert.Equal(t, 0, reg.count())
}
