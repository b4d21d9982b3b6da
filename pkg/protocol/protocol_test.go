package protocol

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomberfox/pkg/core"
)

func roundTrip(t *testing.T, p *Packet) *Packet {
	t.Helper()
	data, err := Marshal(p)
	require.NoError(t, err)
	out, err := Unmarshal(data)
	require.NoError(t, err)
	return out
}

func TestMarshal_MissingType(t *testing.T) {
	_, err := Marshal(&Packet{})
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Marshal(nil)
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestUnmarshal_Garbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestParse_WrongType(t *testing.T) {
	p, err := NewPingPacket(1)
	require.NoError(t, err)

	_, err = ParseJoinRequest(p)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestClientInput_RoundTrip(t *testing.T) {
	in := ClientInput{Seq: 42, Up: true, Bomb: true}
	p, err := NewClientInputPacket(in)
	require.NoError(t, err)

	got, err := ParseClientInput(roundTrip(t, p))
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Equal(t, core.DirUp, got.ToCoreInput().Direction())
	assert.Equal(t, in, FromCoreInput(42, got.ToCoreInput()))
}

func TestJoinResponse_RoundTrip(t *testing.T) {
	resp := JoinResponse{
		Success:      true,
		PlayerID:     2,
		SessionToken: "token",
		RoomID:       "default",
		MatchID:      "m-1",
		Level:        3,
		TPS:          60,
	}
	p, err := NewJoinResponsePacket(resp)
	require.NoError(t, err)

	got, err := ParseJoinResponse(roundTrip(t, p))
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestReconnectRequest_RequiresToken(t *testing.T) {
	p, err := NewReconnectRequestPacket("")
	require.NoError(t, err)

	_, err = ParseReconnectRequest(p)
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestRoomList_RoundTrip(t *testing.T) {
	rooms := []RoomInfo{
		{ID: "default", Players: 1, Max: 4, Level: 0, Running: true},
		{ID: "b", Players: 0, Max: 4, Level: 2},
	}
	p, err := NewRoomListResponsePacket(rooms)
	require.NoError(t, err)

	got, err := ParseRoomListResponse(roundTrip(t, p))
	require.NoError(t, err)
	assert.Equal(t, rooms, got)
}

func TestServerState_RoundTrip(t *testing.T) {
	snap := core.Snapshot{
		Time:   1500 * time.Millisecond,
		Level:  1,
		Status: core.StatusWon,
		Bounds: core.Bounds{Min: core.Cell{X: -7, Y: -4}, Max: core.Cell{X: 7, Y: 4}},
		Entities: []core.OccupantView{
			// 超出 float64 精度的 ID 也必须原样还原
			{ID: 1<<53 + 1, Category: core.CategoryShockWave, Cell: core.Cell{X: 1, Y: -2}, Dir: core.DirLeft, Distance: 2, Fading: true},
			{ID: 7, Category: core.CategoryObstacle, Cell: core.Cell{X: 0, Y: 3}, Dir: core.DirNone},
		},
		Players: []core.PlayerView{
			{ID: 1, Cell: core.Cell{X: -7, Y: 4}, Facing: core.DirDown, Health: 2, MaxHealth: 3, CurrentBombs: 1, MaxBombs: 2, Invulnerable: true},
		},
	}
	p, err := NewServerStatePacket(99, snap)
	require.NoError(t, err)

	frame, got, err := ParseServerState(roundTrip(t, p))
	require.NoError(t, err)
	assert.Equal(t, int32(99), frame)
	assert.Equal(t, snap, got)
}

func TestServerState_UnknownCategory(t *testing.T) {
	p, err := NewPacket(TypeServerState, map[string]any{
		"entities": []any{map[string]any{"id": "1", "category": "Dragon"}},
	})
	require.NoError(t, err)

	_, _, err = ParseServerState(p)
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestGameEvent_RoundTrip(t *testing.T) {
	p, err := NewGameEventPacket(core.Event{
		Kind:     core.EventExitRevealed,
		Time:     2 * time.Second,
		Cell:     core.Cell{X: 3, Y: 1},
		PlayerID: 1,
	})
	require.NoError(t, err)

	got, err := ParseGameEvent(roundTrip(t, p))
	require.NoError(t, err)
	assert.Equal(t, "exit_revealed", got.Kind)
	assert.Equal(t, 2*time.Second, got.Time)
	assert.Equal(t, core.Cell{X: 3, Y: 1}, got.Cell)
	assert.Equal(t, 1, got.PlayerID)
}

func TestParseDirection(t *testing.T) {
	for _, d := range core.CardinalDirections {
		assert.Equal(t, d, ParseDirection(d.String()))
	}
	assert.Equal(t, core.DirNone, ParseDirection("sideways"))
}

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("abc")))
	require.NoError(t, WriteFrame(&buf, nil))

	assert.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	data, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrame_TooBig(t *testing.T) {
	err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1))
	assert.ErrorIs(t, err, ErrFrameTooBig)

	r := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})
	_, err = ReadFrame(r)
	assert.ErrorIs(t, err, ErrFrameTooBig)
}

func TestPacket_OverFrame(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPongPacket(Pong{ClientTime: 10, ServerTime: 20, ServerFrame: 3})
	require.NoError(t, err)
	require.NoError(t, WritePacket(&buf, p))

	got, err := ReadPacket(&buf)
	require.NoError(t, err)
	pong, err := ParsePong(got)
	require.NoError(t, err)
	assert.Equal(t, Pong{ClientTime: 10, ServerTime: 20, ServerFrame: 3}, pong)
}

func TestListen_UnknownProto(t *testing.T) {
	_, err := Listen("sctp", ":0")
	assert.ErrorIs(t, err, ErrUnknownProto)

	_, err = Dial("sctp", "127.0.0.1:1")
	assert.ErrorIs(t, err, ErrUnknownProto)
}

func TestListen_TCP(t *testing.T) {
	l, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	done := make(chan *Packet, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			close(done)
			return
		}
		defer conn.Close()
		p, err := ReadPacket(conn)
		if err != nil {
			close(done)
			return
		}
		done <- p
	}()

	conn, err := Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	p, err := NewJoinRequestPacket(JoinRequest{PlayerName: "fox"})
	require.NoError(t, err)
	require.NoError(t, WritePacket(conn, p))

	select {
	case got := <-done:
		require.NotNil(t, got)
		req, err := ParseJoinRequest(got)
		require.NoError(t, err)
		assert.Equal(t, "fox", req.PlayerName)
	case <-time.After(2 * time.Second):
		t.Fatal("超时")
	}
}
