package server

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"bomberfox/pkg/level"
	"bomberfox/pkg/protocol"
)

// fakeSession 记录房间发出的数据包
type fakeSession struct {
	mu       sync.Mutex
	id       int32
	room     string
	sent     []*protocol.Packet
	closed   bool
	notified bool
}

func newFakeSession() *fakeSession { return &fakeSession{id: -1} }

func (s *fakeSession) ID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *fakeSession) SetPlayerID(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *fakeSession) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *fakeSession) SetRoomID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = id
}

func (s *fakeSession) Send(data []byte) error {
	p, err := protocol.Unmarshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrConnectionClosed
	}
	s.sent = append(s.sent, p)
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.notified = true
}

func (s *fakeSession) CloseWithoutNotify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// packets 返回指定类型的全部数据包
func (s *fakeSession) packets(t protocol.MessageType) []*protocol.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*protocol.Packet
	for _, p := range s.sent {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeSession) last(t *testing.T, typ protocol.MessageType) *protocol.Packet {
	t.Helper()
	ps := s.packets(typ)
	require.NotEmpty(t, ps, "没有收到 %s", typ)
	return ps[len(ps)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fourCorners 5x3 的空竞技场，四角为出生点
const fourCorners = `
P...P
.....
P...P
`

func parseLayout(t *testing.T, text string) *level.Layout {
	t.Helper()
	l, err := level.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return l
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testTokens() *TokenIssuer {
	return NewTokenIssuer("test-secret", time.Minute)
}

// newTestRoom 创建不运行循环的房间，测试直接调用内部处理函数
func newTestRoom(t *testing.T, cfg RoomConfig) (*Room, *fakeClock) {
	t.Helper()
	if cfg.Layout == nil {
		cfg.Layout = parseLayout(t, fourCorners)
	}
	r, err := NewRoom(context.Background(), "test", cfg, testTokens(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(r.Shutdown)

	clock := &fakeClock{now: time.Unix(1_000, 0)}
	r.now = clock.Now
	return r, clock
}

func join(t *testing.T, r *Room, name string) *fakeSession {
	t.Helper()
	s := newFakeSession()
	require.NoError(t, r.handleJoin(s, JoinEvent{PlayerName: name}))
	return s
}

// testContext 返回测试结束时取消的 context（等价于 Go 1.24 的 t.Context）
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
