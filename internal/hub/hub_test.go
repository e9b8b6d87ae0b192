package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Frames are asserted by draining the client's send queue; no real
// websocket is needed because delivery stops at the buffer.
func drain(t *testing.T, c *Client) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		select {
		case f := <-c.send:
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestEmit(t *testing.T) {
	h := New()
	c1 := h.Register("c1", nil)

	require.NoError(t, h.Emit("c1", "connected", map[string]string{"clientId": "c1"}))
	assert.ErrorIs(t, h.Emit("ghost", "connected", nil), ErrNotConnected)

	frames := drain(t, c1)
	require.Len(t, frames, 1)

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &env))
	assert.Equal(t, "connected", env.Type)
	assert.JSONEq(t, `{"clientId":"c1"}`, string(env.Data))
}

func TestGroupBroadcast(t *testing.T) {
	h := New()
	c1 := h.Register("c1", nil)
	c2 := h.Register("c2", nil)
	c3 := h.Register("c3", nil)
	h.JoinGroup("abcd", "c1")
	h.JoinGroup("abcd", "c2")
	assert.Equal(t, 2, h.GroupSize("abcd"))

	h.Broadcast("abcd", "user_message", map[string]string{"msg": "hi"})
	assert.Len(t, drain(t, c1), 1)
	assert.Len(t, drain(t, c2), 1)
	assert.Empty(t, drain(t, c3))

	h.BroadcastExcept("abcd", "c1", "user-joined", map[string]string{"id": "c1"})
	assert.Empty(t, drain(t, c1))
	assert.Len(t, drain(t, c2), 1)
}

func TestLeaveGroup(t *testing.T) {
	h := New()
	h.Register("c1", nil)
	h.JoinGroup("abcd", "c1")
	require.Equal(t, 1, h.GroupSize("abcd"))

	h.LeaveGroup("abcd", "c1")
	assert.Equal(t, 0, h.GroupSize("abcd"))

	// Unknown group or member: no-op.
	h.LeaveGroup("abcd", "c1")
	h.LeaveGroup("nope", "c1")
}

func TestJoinGroupRequiresRegistration(t *testing.T) {
	h := New()
	h.JoinGroup("abcd", "ghost")
	assert.Equal(t, 0, h.GroupSize("abcd"))
}

func TestUnregisterCleansGroups(t *testing.T) {
	h := New()
	h.Register("c1", nil)
	h.Register("c2", nil)
	h.JoinGroup("abcd", "c1")
	h.JoinGroup("abcd", "c2")

	h.Unregister("c1")
	assert.Equal(t, 1, h.GroupSize("abcd"))
	assert.Equal(t, 1, h.ConnectionCount())
	assert.ErrorIs(t, h.Emit("c1", "x", nil), ErrNotConnected)

	h.Unregister("c2")
	assert.Equal(t, 0, h.GroupSize("abcd"))

	// Double unregister is harmless.
	h.Unregister("c2")
}

func TestUUIDGeneratorUnique(t *testing.T) {
	var g UUIDGenerator
	a, b := g.NewID(), g.NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
