package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2parena/lobbyd/internal/domain"
)

func decodeMaps(t *testing.T, raw string) []domain.Map {
	t.Helper()
	var maps []domain.Map
	require.NoError(t, json.Unmarshal([]byte(raw), &maps))
	return maps
}

func leaderCount(roster []domain.User) int {
	n := 0
	for _, u := range roster {
		if u.Leader {
			n++
		}
	}
	return n
}

func TestJoinLeaveLeaderUniqueness(t *testing.T) {
	l := NewLobby(8)

	steps := []struct {
		join bool
		conn domain.ConnID
	}{
		{true, "a"}, {true, "b"}, {true, "c"},
		{false, "a"}, {true, "d"}, {false, "b"},
		{true, "e"}, {false, "c"}, {false, "d"},
	}
	for _, step := range steps {
		if step.join {
			_, err := l.Join(step.conn, string(step.conn), "arena")
			require.NoError(t, err)
		} else {
			l.Leave(step.conn, string(step.conn), "arena")
		}
		if room, ok := l.Rooms.Get("arena"); ok {
			assert.Equal(t, 1, leaderCount(room.Roster()), "after step %v", step)
		}
	}
}

func TestJoinCapacityEnforcement(t *testing.T) {
	l := NewLobby(2)
	_, err := l.Join("a", "alice", "arena")
	require.NoError(t, err)
	_, err = l.Join("b", "bob", "arena")
	require.NoError(t, err)

	_, err = l.Join("c", "carol", "arena")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	room, ok := l.Rooms.Get("arena")
	require.True(t, ok)
	assert.Equal(t, 2, room.Size(), "membership unchanged")
}

func TestJoinRejectedDoesNotStrandEmptyRoom(t *testing.T) {
	l := NewLobby(0)
	_, err := l.Join("a", "alice", "fresh")
	require.ErrorIs(t, err, domain.ErrRoomFull)
	_, ok := l.Rooms.Get("fresh")
	assert.False(t, ok, "a join that created the room must drop it again on failure")
}

func TestEmptyRoomGarbageCollection(t *testing.T) {
	l := NewLobby(8)
	_, err := l.Join("a", "alice", "arena")
	require.NoError(t, err)

	res := l.Leave("a", "alice", "arena")
	assert.True(t, res.Removed)
	assert.Empty(t, res.Roster)
	_, ok := l.Rooms.Get("arena")
	assert.False(t, ok)
}

func TestLeaveUnknownRoomIsIdempotent(t *testing.T) {
	l := NewLobby(8)
	res := l.Leave("a", "alice", "never-existed")
	assert.False(t, res.Removed)
	_, ok := l.Rooms.Get("never-existed")
	assert.False(t, ok)
}

func TestLeaderFallbackDeterminism(t *testing.T) {
	l := NewLobby(8)
	for _, conn := range []domain.ConnID{"a", "b", "c"} {
		_, err := l.Join(conn, string(conn), "arena")
		require.NoError(t, err)
	}

	res := l.Leave("a", "a", "arena")
	require.Len(t, res.Roster, 2)
	assert.Equal(t, domain.ConnID("b"), res.Roster[0].ConnID)
	assert.True(t, res.Roster[0].Leader, "second joiner inherits leadership")
	assert.False(t, res.Roster[1].Leader)
}

func TestReadinessThreshold(t *testing.T) {
	l := NewLobby(8)
	for _, conn := range []domain.ConnID{"a", "b", "c"} {
		_, err := l.Join(conn, string(conn), "arena")
		require.NoError(t, err)
	}

	out, err := l.SetReady("a", "arena", true)
	require.NoError(t, err)
	assert.False(t, out.Start)

	out, err = l.SetReady("b", "arena", true)
	require.NoError(t, err)
	assert.False(t, out.Start)

	out, err = l.SetReady("c", "arena", true)
	require.NoError(t, err)
	assert.True(t, out.Start)
	assert.Equal(t, 0, out.MapIndex)

	// the vote is spent: the next toggle does not re-fire
	out, err = l.SetReady("a", "arena", true)
	require.NoError(t, err)
	assert.False(t, out.Start)
}

func TestReadinessLoneUser(t *testing.T) {
	l := NewLobby(8)
	_, err := l.Join("a", "alice", "solo")
	require.NoError(t, err)

	out, err := l.SetReady("a", "solo", true)
	require.NoError(t, err)
	assert.False(t, out.Start, "a lone user cannot start a match")
}

func TestSetReadyErrors(t *testing.T) {
	l := NewLobby(8)
	_, err := l.SetReady("a", "missing", true)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = l.Join("a", "alice", "arena")
	require.NoError(t, err)
	_, err = l.SetReady("stranger", "arena", true)
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
}

func TestSetRoomMapsValidation(t *testing.T) {
	l := NewLobby(8)
	_, err := l.Join("a", "alice", "arena")
	require.NoError(t, err)

	good := decodeMaps(t, `[{"layers":[],"entities":[],"created":123}]`)
	_, err = l.SetRoomMaps("arena", good)
	require.NoError(t, err)

	// an invalid batch is rejected atomically, prior queue untouched
	bad := decodeMaps(t, `[{"layers":[],"entities":[],"created":1},{"layers":[],"created":2}]`)
	_, err = l.SetRoomMaps("arena", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidMapData)

	res, err := l.Join("b", "bob", "arena")
	require.NoError(t, err)
	out, err := json.Marshal(res.Maps)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"layers":[],"entities":[],"created":123}]`, string(out),
		"late joiner sees the accepted queue verbatim")
}

func TestSetRoomMapsUnknownRoom(t *testing.T) {
	l := NewLobby(8)
	_, err := l.SetRoomMaps("missing", nil)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}
