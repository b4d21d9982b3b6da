package client

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomberfox/internal/config"
	"bomberfox/internal/server"
	"bomberfox/pkg/core"
	"bomberfox/pkg/level"
)

// arena 5x3 空地，四角出生
const arena = `
P...P
.....
P...P
`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func startServer(t *testing.T) string {
	t.Helper()
	layout, err := level.Parse(strings.NewReader(arena))
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	require.NoError(t, level.Save(fs, "arena.txt", layout))

	cfg := config.DefaultServer()
	cfg.Addr = "127.0.0.1:0"
	cfg.Proto = "tcp"
	cfg.LayoutFile = "arena.txt"

	s, err := server.NewGameServer(cfg, fs, quietLogger())
	require.NoError(t, err)
	go func() { _ = s.Start() }()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("服务器启动超时")
	}
	t.Cleanup(s.Shutdown)
	return s.Addr().String()
}

func connect(t *testing.T, addr string) *NetworkClient {
	t.Helper()
	c := NewNetworkClient("tcp", addr, quietLogger())
	t.Cleanup(c.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Connect(ctx, "fox", "")
	require.NoError(t, err)
	require.True(t, resp.Success)
	return c
}

func localPlayer(c *NetworkClient) (core.PlayerView, bool) {
	_, snap, ok := c.State()
	if !ok {
		return core.PlayerView{}, false
	}
	for _, p := range snap.Players {
		if p.ID == int(c.PlayerID()) {
			return p, true
		}
	}
	return core.PlayerView{}, false
}

func TestNetworkClient_ReceivesState(t *testing.T) {
	c := connect(t, startServer(t))

	assert.True(t, c.Connected())
	assert.Equal(t, int32(1), c.Level())
	require.Eventually(t, func() bool {
		_, ok := localPlayer(c)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	p, _ := localPlayer(c)
	assert.Equal(t, core.Cell{X: -2, Y: 1}, p.Cell)
}

func TestNetworkClient_SendInputMovesPlayer(t *testing.T) {
	c := connect(t, startServer(t))

	require.Eventually(t, func() bool {
		_ = c.SendInput(core.Input{Right: true})
		p, ok := localPlayer(c)
		return ok && p.Cell.X > -2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNetworkClient_ReconnectsAfterDrop(t *testing.T) {
	c := connect(t, startServer(t))
	id := c.PlayerID()

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return c.Reconnects() == 1 && c.Connected()
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, id, c.PlayerID())
	assert.NoError(t, c.SendInput(core.Input{Down: true}))
}

func TestNetworkClient_RoomFull(t *testing.T) {
	addr := startServer(t)
	for i := 0; i < 4; i++ {
		connect(t, addr)
	}

	c := NewNetworkClient("tcp", addr, quietLogger())
	defer c.Close()
	_, err := c.Connect(context.Background(), "late", "")
	assert.ErrorIs(t, err, ErrJoinRejected)
	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.SendInput(core.Input{}), ErrNotConnected)
}

func TestNetworkClient_ClosedRejectsWrites(t *testing.T) {
	c := connect(t, startServer(t))
	require.NoError(t, c.Ping())

	c.Close()
	c.Close()
	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.SendInput(core.Input{Up: true}), ErrClientClosed)
	assert.ErrorIs(t, c.Ping(), ErrClientClosed)
}

func TestListRooms(t *testing.T) {
	addr := startServer(t)
	connect(t, addr)

	rooms, err := ListRooms(context.Background(), "tcp", addr)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, server.DefaultRoomID, rooms[0].ID)
	assert.Equal(t, int32(1), rooms[0].Players)
	assert.True(t, rooms[0].Running)
}
