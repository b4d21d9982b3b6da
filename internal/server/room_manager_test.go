package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *RoomManager {
	t.Helper()
	m := NewRoomManager(testContext(t), RoomConfig{Layout: parseLayout(t, fourCorners)}, testTokens(), discardLogger())
	require.NoError(t, m.Run())
	t.Cleanup(m.Shutdown)
	return m
}

func TestRoomManager_JoinDefaultAndNamedRooms(t *testing.T) {
	m := newTestManager(t)

	a := newFakeSession()
	require.NoError(t, m.Join(a, JoinEvent{PlayerName: "a"}))
	assert.Equal(t, DefaultRoomID, a.RoomID())

	b := newFakeSession()
	require.NoError(t, m.Join(b, JoinEvent{PlayerName: "b", RoomID: "arena"}))
	assert.Equal(t, "arena", b.RoomID())

	rooms := m.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "arena", rooms[0].ID)
	assert.Equal(t, DefaultRoomID, rooms[1].ID)
	assert.Equal(t, int32(1), rooms[0].Players)
	assert.True(t, rooms[1].Running)
}

func TestRoomManager_JoinFailureClearsRoom(t *testing.T) {
	m := NewRoomManager(testContext(t), RoomConfig{MaxPlayers: 1, Layout: parseLayout(t, fourCorners)}, testTokens(), discardLogger())
	require.NoError(t, m.Run())
	t.Cleanup(m.Shutdown)

	require.NoError(t, m.Join(newFakeSession(), JoinEvent{}))

	s := newFakeSession()
	err := m.Join(s, JoinEvent{})
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Empty(t, s.RoomID())
}

func TestRoomManager_Reconnect(t *testing.T) {
	m := newTestManager(t)

	a := newFakeSession()
	require.NoError(t, m.Join(a, JoinEvent{PlayerName: "a"}))
	m.Leave(a, false)

	token, err := m.tokens.Issue(a.ID(), DefaultRoomID, "")
	require.NoError(t, err)
	_, err = m.Reconnect(newFakeSession(), token)
	assert.ErrorIs(t, err, ErrNoSeat)

	token, err = m.tokens.Issue(a.ID(), "nowhere", "")
	require.NoError(t, err)
	_, err = m.Reconnect(newFakeSession(), token)
	assert.ErrorIs(t, err, ErrNoSeat)

	_, err = m.Reconnect(newFakeSession(), "junk")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRoomManager_CleanupKeepsDefault(t *testing.T) {
	m := newTestManager(t)

	s := newFakeSession()
	require.NoError(t, m.Join(s, JoinEvent{RoomID: "tmp"}))
	m.Leave(s, true)

	assert.Eventually(t, func() bool {
		return m.GetRoomStats()["tmp"].PlayerCount == 0
	}, 2*time.Second, 10*time.Millisecond)

	m.cleanupEmptyRooms()
	stats := m.GetRoomStats()
	assert.Contains(t, stats, DefaultRoomID)
	assert.NotContains(t, stats, "tmp")
}
