package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus(t *testing.T) {
	reg := NewRegistry()

	t.Run("invalid name skips existence check", func(t *testing.T) {
		st := reg.CheckStatus("ab")
		assert.False(t, st.Valid)
		assert.False(t, st.Exists)
		assert.Equal(t, ErrInvalidRoomName.Error(), st.Error)
	})

	t.Run("absent room", func(t *testing.T) {
		st := reg.CheckStatus("movies")
		assert.True(t, st.Valid)
		assert.False(t, st.Exists)
		assert.Empty(t, st.Error)
	})

	t.Run("open room", func(t *testing.T) {
		require.NoError(t, reg.Create("movies", ""))
		st := reg.CheckStatus("movies")
		assert.True(t, st.Exists)
		assert.False(t, st.PasswordRequired)
	})

	t.Run("protected room", func(t *testing.T) {
		require.NoError(t, reg.Create("secret1", "hunter2"))
		st := reg.CheckStatus("secret1")
		assert.True(t, st.Exists)
		assert.True(t, st.PasswordRequired)
	})
}

func TestCreate(t *testing.T) {
	t.Run("invalid names rejected", func(t *testing.T) {
		reg := NewRegistry()
		for _, name := range []string{"", "abc", "abcdefghijk", "ab cd"} {
			assert.ErrorIs(t, reg.Create(name, ""), ErrInvalidRoomName, name)
		}
	})

	t.Run("password trimmed, blank means open", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", "   "))
		assert.False(t, reg.CheckStatus("abcd").PasswordRequired)

		require.NoError(t, reg.Create("efgh", "  x  "))
		assert.NoError(t, reg.CheckPermission("efgh", "x"))
	})

	t.Run("recreate over empty room resets it", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", "old"))
		require.NoError(t, reg.Create("abcd", ""))
		assert.False(t, reg.CheckStatus("abcd").PasswordRequired)
	})

	t.Run("recreate over occupied room rejected", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", ""))
		_, err := reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
		require.NoError(t, err)
		assert.ErrorIs(t, reg.Create("abcd", ""), ErrRoomOccupied)
	})
}

func TestCheckPermission(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Create("abcd", "x"))
	require.NoError(t, reg.Create("efgh", ""))

	assert.ErrorIs(t, reg.CheckPermission("nope", ""), ErrRoomNotFound)
	assert.ErrorIs(t, reg.CheckPermission("abcd", "wrong"), ErrWrongPassword)
	assert.NoError(t, reg.CheckPermission("abcd", "x"))
	assert.NoError(t, reg.CheckPermission("efgh", "anything"))
}

func TestJoin(t *testing.T) {
	t.Run("room not found", func(t *testing.T) {
		reg := NewRegistry()
		_, err := reg.Join("nope", "", Member{ID: "c1", Name: "anna"})
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", "x"))
		_, err := reg.Join("abcd", "y", Member{ID: "c1", Name: "anna"})
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("idempotent per connection", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", ""))

		members, err := reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
		require.NoError(t, err)
		assert.Len(t, members, 1)

		members, err = reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
		require.NoError(t, err)
		assert.Len(t, members, 1)

		members, err = reg.Join("abcd", "", Member{ID: "c2", Name: "ben0"})
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "c1", members[0].ID)
		assert.Equal(t, "c2", members[1].ID)

		assert.Equal(t, members, reg.Members("abcd"))
		assert.Nil(t, reg.Members("nope"))
	})

	t.Run("duplicate display names are allowed", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Create("abcd", ""))
		_, err := reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
		require.NoError(t, err)
		members, err := reg.Join("abcd", "", Member{ID: "c2", Name: "anna"})
		require.NoError(t, err)
		assert.Len(t, members, 2)
	})
}

func TestLeave(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Create("abcd", ""))
	_, err := reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
	require.NoError(t, err)
	_, err = reg.Join("abcd", "", Member{ID: "c2", Name: "ben0"})
	require.NoError(t, err)

	t.Run("non-member is a no-op", func(t *testing.T) {
		_, _, ok := reg.Leave("abcd", "ghost")
		assert.False(t, ok)
	})

	t.Run("removal keeps the room while members remain", func(t *testing.T) {
		removed, deleted, ok := reg.Leave("abcd", "c1")
		require.True(t, ok)
		assert.False(t, deleted)
		assert.Equal(t, "anna", removed.Name)
		assert.True(t, reg.Exists("abcd"))
	})

	t.Run("last member out deletes the room", func(t *testing.T) {
		_, deleted, ok := reg.Leave("abcd", "c2")
		require.True(t, ok)
		assert.True(t, deleted)
		assert.False(t, reg.Exists("abcd"))
		assert.False(t, reg.CheckStatus("abcd").Exists)
	})
}

func TestPhases(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Create("abcd", ""))
	_, err := reg.Join("abcd", "", Member{ID: "c1", Name: "anna"})
	require.NoError(t, err)
	_, err = reg.Join("abcd", "", Member{ID: "c2", Name: "ben0"})
	require.NoError(t, err)

	assert.True(t, reg.SetPhase("abcd", "c1", PhaseSynced))
	assert.False(t, reg.SetPhase("abcd", "ghost", PhaseSynced))
	assert.False(t, reg.SetPhase("nope", "c1", PhaseSynced))

	synced := reg.MembersInPhase("abcd", func(p Phase) bool { return p == PhaseSynced })
	require.Len(t, synced, 1)
	assert.Equal(t, "c1", synced[0].ID)

	idle := reg.MembersInPhase("abcd", func(p Phase) bool { return p == PhaseIdle })
	require.Len(t, idle, 1)
	assert.Equal(t, "c2", idle[0].ID)
}

func TestDeleteAndList(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Create("abcd", "x"))
	_, err := reg.Join("abcd", "x", Member{ID: "c1", Name: "anna"})
	require.NoError(t, err)

	assert.False(t, reg.DeleteIfEmpty("abcd"))

	infos := reg.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "abcd", infos[0].Name)
	assert.Equal(t, 1, infos[0].MemberCount)
	assert.True(t, infos[0].PasswordRequired)

	members, ok := reg.Delete("abcd")
	require.True(t, ok)
	assert.Len(t, members, 1)
	assert.False(t, reg.Exists("abcd"))

	_, ok = reg.Delete("abcd")
	assert.False(t, ok)
}
