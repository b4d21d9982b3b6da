package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomberfox/pkg/core"
	"bomberfox/pkg/protocol"
)

func TestRoom_JoinSendsWelcome(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	s := join(t, r, "fox")

	assert.Equal(t, int32(1), s.ID())
	assert.Equal(t, StateRunning, r.state)
	assert.Equal(t, 1, r.Stats().PlayerCount)

	resp, err := protocol.ParseJoinResponse(s.last(t, protocol.TypeJoinResponse))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(1), resp.PlayerID)
	assert.Equal(t, r.matchID, resp.MatchID)
	assert.Equal(t, int32(ServerTPS), resp.TPS)

	claims, err := r.tokens.Verify(resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, int32(1), claims.PlayerID)
	assert.Equal(t, "test", claims.RoomID)
	assert.Equal(t, r.matchID, claims.MatchID)
}

func TestRoom_PlayersGetDistinctStarts(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	join(t, r, "a")
	join(t, r, "b")

	cells := map[core.Cell]bool{}
	for _, p := range r.game.Players() {
		cells[p.Cell] = true
	}
	assert.Len(t, cells, 2)
}

func TestRoom_Full(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{MaxPlayers: 2})
	join(t, r, "a")
	join(t, r, "b")

	err := r.handleJoin(newFakeSession(), JoinEvent{PlayerName: "c"})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRoom_CapacityLimitedByStarts(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{Layout: parseLayout(t, "P..\n...")})
	join(t, r, "a")

	err := r.handleJoin(newFakeSession(), JoinEvent{PlayerName: "b"})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRoom_TickBroadcastsState(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	s := join(t, r, "fox")

	r.tick()

	frame, snap, err := protocol.ParseServerState(s.last(t, protocol.TypeServerState))
	require.NoError(t, err)
	assert.Equal(t, int32(1), frame)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, r.starts[0], snap.Players[0].Cell)
	assert.Equal(t, TickDuration.Milliseconds(), snap.Time.Milliseconds())
}

func TestRoom_WaitingRoomDoesNotTick(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	r.tick()
	assert.Equal(t, int32(0), r.frameID)
}

func TestRoom_InputMovesPlayer(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	s := join(t, r, "fox")
	start := r.starts[0]

	r.handleInput(inputEvent{playerID: s.ID(), input: core.Input{Right: true}})
	r.tick()

	p, ok := r.game.Player(int(s.ID()))
	require.True(t, ok)
	assert.Equal(t, start.Add(core.DirRight), p.Cell)
	assert.Empty(t, r.inputQueue)
}

func TestRoom_InputKeepsBombPress(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	s := join(t, r, "fox")

	r.handleInput(inputEvent{playerID: s.ID(), input: core.Input{Bomb: true}})
	r.handleInput(inputEvent{playerID: s.ID(), input: core.Input{Left: true}})
	assert.Equal(t, core.Input{Left: true, Bomb: true}, r.inputQueue[s.ID()])

	r.tick()
	assert.Len(t, r.game.Bombs(), 1)
}

func TestRoom_InputFromUnknownPlayerIgnored(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	join(t, r, "fox")

	r.handleInput(inputEvent{playerID: 42, input: core.Input{Up: true}})
	assert.Empty(t, r.inputQueue)
}

func TestRoom_DisconnectKeepsSeatUntilGrace(t *testing.T) {
	r, clock := newTestRoom(t, RoomConfig{ReconnectGrace: 5 * time.Second})
	a := join(t, r, "a")
	b := join(t, r, "b")

	r.handleLeave(a.ID(), a, false)
	require.Contains(t, r.seats, a.ID())
	assert.Nil(t, r.seats[a.ID()].session)

	clock.Advance(4 * time.Second)
	r.tick()
	assert.Contains(t, r.seats, a.ID())

	clock.Advance(2 * time.Second)
	r.tick()
	assert.NotContains(t, r.seats, a.ID())

	left, err := protocol.ParsePlayerLeave(b.last(t, protocol.TypePlayerLeave))
	require.NoError(t, err)
	assert.Equal(t, a.ID(), left)
	_, ok := r.game.Player(int(a.ID()))
	assert.False(t, ok)
}

func TestRoom_ReconnectWithinGrace(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	a := join(t, r, "a")
	resp, err := protocol.ParseJoinResponse(a.last(t, protocol.TypeJoinResponse))
	require.NoError(t, err)

	r.handleLeave(a.ID(), a, false)

	claims, err := r.tokens.Verify(resp.SessionToken)
	require.NoError(t, err)
	fresh := newFakeSession()
	require.NoError(t, r.handleReconnect(fresh, claims))

	assert.Equal(t, a.ID(), fresh.ID())
	assert.Equal(t, "test", fresh.RoomID())
	assert.Same(t, fresh, r.seats[a.ID()].session)
	assert.True(t, r.seats[a.ID()].disconnectedAt.IsZero())

	rr, err := protocol.ParseReconnectResponse(fresh.last(t, protocol.TypeReconnectResponse))
	require.NoError(t, err)
	assert.True(t, rr.Success)
	assert.NotEmpty(t, fresh.packets(protocol.TypeServerState))
}

func TestRoom_ReconnectReplacesLiveSession(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	a := join(t, r, "a")

	fresh := newFakeSession()
	require.NoError(t, r.handleReconnect(fresh, &Claims{PlayerID: a.ID(), MatchID: r.matchID}))
	assert.True(t, a.isClosed())
	assert.False(t, a.notified)
}

func TestRoom_StaleLeaveIgnoredAfterReconnect(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	a := join(t, r, "a")

	fresh := newFakeSession()
	require.NoError(t, r.handleReconnect(fresh, &Claims{PlayerID: a.ID(), MatchID: r.matchID}))

	r.handleLeave(a.ID(), a, false)
	assert.Same(t, fresh, r.seats[a.ID()].session)
	assert.True(t, r.seats[a.ID()].disconnectedAt.IsZero())
}

func TestRoom_ReconnectRejectsOldMatch(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	a := join(t, r, "a")

	err := r.handleReconnect(newFakeSession(), &Claims{PlayerID: a.ID(), MatchID: "other"})
	assert.ErrorIs(t, err, ErrNoSeat)

	err = r.handleReconnect(newFakeSession(), &Claims{PlayerID: 9, MatchID: r.matchID})
	assert.ErrorIs(t, err, ErrNoSeat)
}

func TestRoom_LastLeaveResetsMatch(t *testing.T) {
	r, _ := newTestRoom(t, RoomConfig{})
	a := join(t, r, "a")
	match := r.matchID

	r.handleLeave(a.ID(), a, true)

	assert.Empty(t, r.seats)
	assert.Equal(t, StateWaiting, r.state)
	assert.NotEqual(t, match, r.matchID)
	assert.Empty(t, r.game.Players())
}

func TestRoom_GameOverAndRebuild(t *testing.T) {
	tests := []struct {
		name      string
		status    core.Status
		wantLevel int
	}{
		{"lost replays level", core.StatusLost, 1},
		{"won advances level", core.StatusWon, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, clock := newTestRoom(t, RoomConfig{ResetDelay: time.Second})
			s := join(t, r, "fox")
			match := r.matchID

			r.handleGameOver(tt.status)
			assert.Equal(t, StateEnding, r.state)

			over, err := protocol.ParseGameOver(s.last(t, protocol.TypeGameOver))
			require.NoError(t, err)
			assert.Equal(t, tt.status.String(), over.Status)
			assert.Equal(t, match, over.MatchID)

			err = r.handleJoin(newFakeSession(), JoinEvent{})
			assert.ErrorIs(t, err, ErrRoomEnding)

			clock.Advance(500 * time.Millisecond)
			r.tick()
			assert.Equal(t, StateEnding, r.state)

			clock.Advance(time.Second)
			r.tick()
			assert.Equal(t, StateRunning, r.state)
			assert.Equal(t, tt.wantLevel, r.level)
			assert.Equal(t, tt.wantLevel, r.game.Level())
			assert.NotEqual(t, match, r.matchID)

			welcomes := s.packets(protocol.TypeJoinResponse)
			require.Len(t, welcomes, 2)
			resp, err := protocol.ParseJoinResponse(welcomes[1])
			require.NoError(t, err)
			assert.Equal(t, r.matchID, resp.MatchID)
			assert.Equal(t, int32(tt.wantLevel), resp.Level)
			assert.Len(t, r.game.Players(), 1)
		})
	}
}

func TestRoom_GeneratedLevel(t *testing.T) {
	r, err := NewRoom(testContext(t), "gen", RoomConfig{Seed: 7}, testTokens(), discardLogger())
	require.NoError(t, err)
	defer r.Shutdown()

	assert.Len(t, r.starts, 4)
	assert.NotEmpty(t, r.game.Enemies())
	assert.Equal(t, 4, r.capacity())
}

func TestRoom_JoinThroughLoop(t *testing.T) {
	r, err := NewRoom(testContext(t), "loop", RoomConfig{Layout: parseLayout(t, fourCorners)}, testTokens(), discardLogger())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(1)
		r.Run(&wg)
	}()

	s := newFakeSession()
	require.NoError(t, r.Join(s, JoinEvent{PlayerName: "fox"}))
	assert.Eventually(t, func() bool {
		return len(s.packets(protocol.TypeServerState)) > 0
	}, 2*time.Second, 10*time.Millisecond)

	r.Shutdown()
	<-done
	assert.True(t, s.isClosed())
	assert.ErrorIs(t, r.Join(newFakeSession(), JoinEvent{}), ErrRoomClosed)
}
