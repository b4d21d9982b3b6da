package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"bomberfox/pkg/core"
	"bomberfox/pkg/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	serverTimeout    = 15 * time.Second // 服务器每 2 秒发一次心跳
	writeTimeout     = time.Second
	reconnectDelay   = 500 * time.Millisecond
	maxReconnects    = 5
	maxEvents        = 64
)

var (
	ErrNotConnected = errors.New("未连接服务器")
	ErrJoinRejected = errors.New("服务器拒绝加入")
	ErrClientClosed = errors.New("客户端已关闭")
)

// NetworkClient 联网客户端：握手、接收状态、发送输入，掉线后用会话 Token 重连
type NetworkClient struct {
	proto string
	addr  string
	log   logrus.FieldLogger

	conn    net.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	mu       sync.RWMutex
	playerID int32
	roomID   string
	matchID  string
	token    string
	level    int32
	frame    int32
	snapshot core.Snapshot
	hasState bool
	over     *protocol.GameOver
	events   []protocol.GameEvent

	seq        atomic.Int32
	rtt        atomic.Int64
	reconnects atomic.Int32
	connected atomic.Bool
	closed    atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNetworkClient 创建客户端，proto 为 tcp 或 kcp
func NewNetworkClient(proto, addr string, log logrus.FieldLogger) *NetworkClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &NetworkClient{
		proto:    proto,
		addr:     addr,
		log:      log.WithFields(logrus.Fields{"server": addr, "proto": proto}),
		playerID: -1,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect 连接服务器并加入房间，阻塞到收到 join_response
func (c *NetworkClient) Connect(ctx context.Context, name, roomID string) (protocol.JoinResponse, error) {
	conn, err := protocol.Dial(c.proto, c.addr)
	if err != nil {
		return protocol.JoinResponse{}, fmt.Errorf("连接服务器失败: %w", err)
	}

	pkt, err := protocol.NewJoinRequestPacket(protocol.JoinRequest{PlayerName: name, RoomID: roomID})
	if err != nil {
		_ = conn.Close()
		return protocol.JoinResponse{}, err
	}
	reply, err := c.handshake(ctx, conn, pkt, protocol.TypeJoinResponse)
	if err != nil {
		_ = conn.Close()
		return protocol.JoinResponse{}, err
	}
	resp, err := protocol.ParseJoinResponse(reply)
	if err != nil {
		_ = conn.Close()
		return protocol.JoinResponse{}, err
	}
	if !resp.Success {
		_ = conn.Close()
		return resp, fmt.Errorf("%w: %s", ErrJoinRejected, resp.Error)
	}
	c.applyWelcome(resp)
	c.start(conn)
	c.log.WithFields(logrus.Fields{"player": resp.PlayerID, "room": resp.RoomID, "level": resp.Level}).Info("已加入房间")
	return resp, nil
}

// handshake 发送请求并等待指定类型的回复，期间收到的其它包照常处理
func (c *NetworkClient) handshake(ctx context.Context, conn net.Conn, req *protocol.Packet, want protocol.MessageType) (*protocol.Packet, error) {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	if err := protocol.WritePacket(conn, req); err != nil {
		return nil, fmt.Errorf("发送 %s: %w", req.Type, err)
	}
	for {
		p, err := protocol.ReadPacket(conn)
		if err != nil {
			return nil, fmt.Errorf("等待 %s: %w", want, err)
		}
		if p.Type == want {
			return p, nil
		}
		c.handle(conn, p)
	}
}

func (c *NetworkClient) start(conn net.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.connected.Store(true)

	c.wg.Add(1)
	go c.receiveLoop(conn)
}

func (c *NetworkClient) applyWelcome(resp protocol.JoinResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = resp.PlayerID
	c.roomID = resp.RoomID
	c.matchID = resp.MatchID
	c.token = resp.SessionToken
	c.level = resp.Level
	c.over = nil
}

func (c *NetworkClient) receiveLoop(conn net.Conn) {
	defer c.wg.Done()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(serverTimeout))
		p, err := protocol.ReadPacket(conn)
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.WithError(err).Warn("与服务器断开")
			c.connected.Store(false)
			_ = conn.Close()
			c.wg.Add(1)
			go c.reconnectLoop()
			return
		}
		c.handle(conn, p)
	}
}

func (c *NetworkClient) handle(conn net.Conn, p *protocol.Packet) {
	switch p.Type {
	case protocol.TypeServerState:
		frame, snap, err := protocol.ParseServerState(p)
		if err != nil {
			c.log.WithError(err).Warn("解析状态失败")
			return
		}
		c.mu.Lock()
		c.frame, c.snapshot, c.hasState = frame, snap, true
		c.mu.Unlock()

	case protocol.TypeGameEvent:
		ev, err := protocol.ParseGameEvent(p)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		if len(c.events) > maxEvents {
			c.events = c.events[len(c.events)-maxEvents:]
		}
		c.mu.Unlock()

	case protocol.TypeGameOver:
		over, err := protocol.ParseGameOver(p)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.over = &over
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"status": over.Status, "winner": over.WinnerID}).Info("对局结束")

	case protocol.TypeJoinResponse:
		// 关卡重建后服务器会重新分配玩家
		if resp, err := protocol.ParseJoinResponse(p); err == nil && resp.Success {
			c.applyWelcome(resp)
			c.log.WithFields(logrus.Fields{"player": resp.PlayerID, "level": resp.Level}).Info("新对局")
		}

	case protocol.TypePing:
		ping, err := protocol.ParsePing(p)
		if err != nil {
			return
		}
		pong, err := protocol.NewPongPacket(protocol.Pong{ClientTime: ping.ClientTime, ServerTime: time.Now().UnixMilli()})
		if err == nil {
			_ = c.writeTo(conn, pong)
		}

	case protocol.TypePong:
		if pong, err := protocol.ParsePong(p); err == nil && pong.ClientTime > 0 {
			c.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
		}

	case protocol.TypePlayerLeave:
		if id, err := protocol.ParsePlayerLeave(p); err == nil {
			c.log.WithField("player", id).Debug("玩家离开")
		}

	default:
		c.log.WithField("type", p.Type).Debug("忽略消息")
	}
}

func (c *NetworkClient) reconnectLoop() {
	defer c.wg.Done()

	for attempt := 1; attempt <= maxReconnects; attempt++ {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(reconnectDelay * time.Duration(attempt)):
		}

		err := c.reconnect()
		if err == nil {
			return
		}
		c.log.WithError(err).WithField("attempt", attempt).Warn("重连失败")
		if errors.Is(err, ErrJoinRejected) {
			return
		}
	}
	c.log.Error("放弃重连")
}

func (c *NetworkClient) reconnect() error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return ErrNotConnected
	}

	conn, err := protocol.Dial(c.proto, c.addr)
	if err != nil {
		return err
	}
	pkt, err := protocol.NewReconnectRequestPacket(token)
	if err != nil {
		_ = conn.Close()
		return err
	}
	reply, err := c.handshake(c.ctx, conn, pkt, protocol.TypeReconnectResponse)
	if err != nil {
		_ = conn.Close()
		return err
	}
	resp, err := protocol.ParseReconnectResponse(reply)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if !resp.Success {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrJoinRejected, resp.Error)
	}
	c.mu.Lock()
	c.playerID = resp.PlayerID
	c.mu.Unlock()
	c.start(conn)
	c.reconnects.Add(1)
	c.log.WithField("player", resp.PlayerID).Info("重连成功")
	return nil
}

func (c *NetworkClient) write(p *protocol.Packet) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil || !c.connected.Load() {
		return ErrNotConnected
	}
	return c.writeTo(conn, p)
}

func (c *NetworkClient) writeTo(conn net.Conn, p *protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return protocol.WritePacket(conn, p)
}

// SendInput 发送一帧输入
func (c *NetworkClient) SendInput(in core.Input) error {
	pkt, err := protocol.NewClientInputPacket(protocol.FromCoreInput(c.seq.Add(1), in))
	if err != nil {
		return err
	}
	return c.write(pkt)
}

// Ping 主动测量往返时间
func (c *NetworkClient) Ping() error {
	pkt, err := protocol.NewPingPacket(time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return c.write(pkt)
}

// Leave 通知服务器主动离开，随后关闭连接
func (c *NetworkClient) Leave() {
	if pkt, err := protocol.NewPlayerLeavePacket(c.PlayerID()); err == nil {
		_ = c.write(pkt)
	}
	c.Close()
}

// Close 关闭连接并等待后台协程退出
func (c *NetworkClient) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.cancel()
	c.connected.Store(false)
	c.connMu.RLock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.RUnlock()
	c.wg.Wait()
	c.log.Info("网络客户端已关闭")
}

// State 最近一次收到的状态快照
func (c *NetworkClient) State() (int32, core.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame, c.snapshot, c.hasState
}

// GameOver 当前对局的结束信息
func (c *NetworkClient) GameOver() (protocol.GameOver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.over == nil {
		return protocol.GameOver{}, false
	}
	return *c.over, true
}

// Events 取出并清空缓存的游戏事件
func (c *NetworkClient) Events() []protocol.GameEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

func (c *NetworkClient) PlayerID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *NetworkClient) Level() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

func (c *NetworkClient) Connected() bool { return c.connected.Load() }

// Reconnects 成功重连的次数
func (c *NetworkClient) Reconnects() int { return int(c.reconnects.Load()) }

func (c *NetworkClient) RTT() time.Duration {
	return time.Duration(c.rtt.Load()) * time.Millisecond
}

// ListRooms 单独建立一条连接查询房间列表
func ListRooms(ctx context.Context, proto, addr string) ([]protocol.RoomInfo, error) {
	conn, err := protocol.Dial(proto, addr)
	if err != nil {
		return nil, fmt.Errorf("连接服务器失败: %w", err)
	}
	defer conn.Close()

	pkt, err := protocol.NewRoomListRequestPacket()
	if err != nil {
		return nil, err
	}
	probe := &NetworkClient{log: logrus.New()}
	reply, err := probe.handshake(ctx, conn, pkt, protocol.TypeRoomListResponse)
	if err != nil {
		return nil, err
	}
	return protocol.ParseRoomListResponse(reply)
}
