package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixly/internal/app/session"
)

type nopSink struct{}

func (nopSink) Connect(string)                         {}
func (nopSink) Action(string, string, json.RawMessage) {}
func (nopSink) Disconnect(string)                      {}

// addTestClient registers a client without a live connection; everything short
// of the pumps works against the send queue alone.
func addTestClient(g *Gateway, socketID string) *Client {
	client := newClient(g, nopSink{}, nil, socketID)
	g.mu.Lock()
	g.clients[socketID] = client
	g.mu.Unlock()
	return client
}

// drainOne pops a single queued frame and decodes its envelope.
func drainOne(t *testing.T, client *Client) session.EventEnvelope {
	t.Helper()

	select {
	case frame := <-client.send:
		var envelope session.EventEnvelope
		require.NoError(t, json.Unmarshal(frame, &envelope))
		return envelope
	default:
		t.Fatalf("client %s has no queued frame", client.socketID)
		return session.EventEnvelope{}
	}
}

func TestSendDeliversToSingleClient(t *testing.T) {
	g := NewGateway()
	c1 := addTestClient(g, "s1")
	c2 := addTestClient(g, "s2")

	g.Send("s1", "authenticated", map[string]string{"k": "v"})

	envelope := drainOne(t, c1)
	assert.Equal(t, "authenticated", envelope.Event)
	assert.Empty(t, c2.send)
}

func TestSendToUnknownClientIsIgnored(t *testing.T) {
	g := NewGateway()

	// Must not panic or create state.
	g.Send("ghost", "authenticated", nil)
	assert.Equal(t, 0, g.ClientCount())
}

func TestSendToGroupExcludesException(t *testing.T) {
	g := NewGateway()
	c1 := addTestClient(g, "s1")
	c2 := addTestClient(g, "s2")
	c3 := addTestClient(g, "s3")

	g.AddToGroup("s1", "lobby")
	g.AddToGroup("s2", "lobby")
	g.AddToGroup("s3", "lobby")

	g.SendToGroup("lobby", "newMessage", nil, "s1")

	assert.Empty(t, c1.send)
	assert.Equal(t, "newMessage", drainOne(t, c2).Event)
	assert.Equal(t, "newMessage", drainOne(t, c3).Event)
}

func TestSendToGroupWithoutExceptionReachesEveryone(t *testing.T) {
	g := NewGateway()
	c1 := addTestClient(g, "s1")
	c2 := addTestClient(g, "s2")

	g.AddToGroup("s1", "lobby")
	g.AddToGroup("s2", "lobby")

	g.SendToGroup("lobby", "roomStatusUpdate", nil, "")

	assert.Equal(t, "roomStatusUpdate", drainOne(t, c1).Event)
	assert.Equal(t, "roomStatusUpdate", drainOne(t, c2).Event)
}

func TestRemoveFromGroupDeletesEmptyGroup(t *testing.T) {
	g := NewGateway()
	addTestClient(g, "s1")

	g.AddToGroup("s1", "lobby")
	g.RemoveFromGroup("s1", "lobby")

	g.mu.RLock()
	defer g.mu.RUnlock()
	assert.NotContains(t, g.groups, "lobby")
}

func TestAddToGroupRequiresLiveClient(t *testing.T) {
	g := NewGateway()

	g.AddToGroup("ghost", "lobby")

	g.mu.RLock()
	defer g.mu.RUnlock()
	assert.NotContains(t, g.groups, "lobby")
}

func TestUnregisterRemovesClientFromAllGroups(t *testing.T) {
	g := NewGateway()
	c1 := addTestClient(g, "s1")
	c2 := addTestClient(g, "s2")

	g.AddToGroup("s1", "alpha")
	g.AddToGroup("s1", "beta")
	g.AddToGroup("s2", "alpha")

	g.unregister(c1)

	assert.Equal(t, 1, g.ClientCount())

	g.SendToGroup("alpha", "x", nil, "")
	assert.Empty(t, c1.send)
	assert.Equal(t, "x", drainOne(t, c2).Event)

	g.mu.RLock()
	defer g.mu.RUnlock()
	assert.NotContains(t, g.groups, "beta")
}

func TestEnqueueAfterCloseReportsFailure(t *testing.T) {
	g := NewGateway()
	c := addTestClient(g, "s1")

	require.True(t, c.enqueue([]byte(`{}`)))

	c.closeSend()
	assert.False(t, c.enqueue([]byte(`{}`)))

	// Closing twice must not panic.
	c.closeSend()
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	g := NewGateway()
	c := addTestClient(g, "s1")

	for i := 0; i < sendChannelBuffer; i++ {
		require.True(t, c.enqueue([]byte(`{}`)))
	}

	assert.False(t, c.enqueue([]byte(`{}`)))
}
