package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterTargets(t *testing.T) {
	notifier := newFakeNotifier()
	b := NewBroadcaster(notifier)

	b.ToSender("s1", EventAuthenticated, "a")
	b.ToRoomExceptSender("lobby", "s1", EventNewMessage, "b")
	b.ToRoom("lobby", EventRoomStatusUpdate, "c")

	events := notifier.all()
	require.Len(t, events, 3)

	assert.True(t, events[0].unicast)
	assert.Equal(t, "s1", events[0].socketID)

	assert.Equal(t, "lobby", events[1].group)
	assert.Equal(t, "s1", events[1].exceptID)

	// The whole-room target excludes no one.
	assert.Equal(t, "lobby", events[2].group)
	assert.Empty(t, events[2].exceptID)
}

func TestBroadcasterGroupMaintenance(t *testing.T) {
	notifier := newFakeNotifier()
	b := NewBroadcaster(notifier)

	b.Enter("s1", "lobby")
	b.Enter("s2", "lobby")
	assert.Len(t, notifier.groups["lobby"], 2)

	b.Exit("s1", "lobby")
	assert.Len(t, notifier.groups["lobby"], 1)

	b.Exit("s2", "lobby")
	assert.NotContains(t, notifier.groups, "lobby")
}
