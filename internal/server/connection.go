package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"bomberfox/pkg/protocol"
)

const (
	readTimeout       = 5 * time.Second // 读取超时
	writeTimeout      = 1 * time.Second // 写入超时
	heartbeatInterval = 2 * time.Second
	heartbeatTimeout  = 15 * time.Second
	sendQueueSize     = 256
)

var (
	ErrSendQueueFull    = errors.New("发送队列满")
	ErrConnectionClosed = errors.New("连接已关闭")
)

// handler 连接收到消息后交给服务器处理
type handler interface {
	handleJoin(c *Connection, ev *JoinEvent) error
	handleInput(c *Connection, ev *InputEvent)
	handlePing(c *Connection, ev *PingEvent)
	handleReconnect(c *Connection, ev *ReconnectEvent) error
	handleRoomList(c *Connection)
	handleLeave(c *Connection, explicit bool)
}

// Connection 表示一个客户端连接
type Connection struct {
	conn     net.Conn
	server   handler
	log      logrus.FieldLogger
	limiter  *rate.Limiter
	playerID atomic.Int32
	roomID   atomic.Value // string

	sendChan chan []byte
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	lastRecvTime atomic.Value // time.Time
	rtt          atomic.Int64
}

// NewConnection 创建连接，inputRate/inputBurst 限制每秒输入包数
func NewConnection(conn net.Conn, server handler, log logrus.FieldLogger, inputRate float64, inputBurst int) *Connection {
	c := &Connection{
		conn:     conn,
		server:   server,
		log:      log.WithField("remote", conn.RemoteAddr().String()),
		limiter:  rate.NewLimiter(rate.Limit(inputRate), inputBurst),
		sendChan: make(chan []byte, sendQueueSize),
		closeCh:  make(chan struct{}),
	}
	c.playerID.Store(-1) // -1 表示未分配
	c.roomID.Store("")
	c.lastRecvTime.Store(time.Now())
	return c
}

// Handle 处理连接直到上下文取消或连接关闭
func (c *Connection) Handle(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	c.log.Debug("连接处理开始")

	wg.Add(3)
	go c.heartbeatLoop(ctx, wg)
	go c.sendLoop(ctx, wg)
	go c.receiveLoop(ctx, wg)

	select {
	case <-ctx.Done():
		c.CloseWithoutNotify()
	case <-c.closeCh:
	}
}

// Close 关闭连接，玩家进入断线保留
func (c *Connection) Close() {
	c.closeWithNotify(true)
}

// CloseWithoutNotify 关闭连接但不通知房间
func (c *Connection) CloseWithoutNotify() {
	c.closeWithNotify(false)
}

func (c *Connection) closeWithNotify(notify bool) {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	close(c.closeCh)
	close(c.sendChan)
	c.closeMu.Unlock()

	_ = c.conn.Close()

	if notify && c.ID() >= 0 {
		c.server.handleLeave(c, false)
	}
	c.log.WithField("player", c.ID()).Info("连接已关闭")
}

// Send 发送数据（异步）
func (c *Connection) Send(data []byte) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Connection) sendPacket(pkt *protocol.Packet, err error) {
	if err != nil {
		c.log.WithError(err).Warn("构造消息失败")
		return
	}
	data, err := protocol.Marshal(pkt)
	if err != nil {
		c.log.WithError(err).Warn("序列化失败")
		return
	}
	_ = c.Send(data)
}

func (c *Connection) sendLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.sendChan:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := protocol.WriteFrame(c.conn, data); err != nil {
				c.log.WithError(err).Warn("发送数据失败")
				c.Close()
				return
			}
		}
	}
}

func (c *Connection) receiveLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		data, err := protocol.ReadFrame(c.conn)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				c.log.Debug("读取超时")
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				c.log.WithError(err).Warn("读取数据失败")
			}
			c.Close()
			return
		}
		c.lastRecvTime.Store(time.Now())
		if len(data) == 0 {
			continue
		}
		if err := c.handleMessage(data); err != nil {
			c.log.WithError(err).Warn("处理消息失败")
		}
	}
}

func (c *Connection) handleMessage(data []byte) error {
	event, err := DecodePacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventJoin:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家 %d 已加入", c.ID())
		}
		return c.server.handleJoin(c, event.Join)

	case EventInput:
		if c.ID() < 0 {
			return nil
		}
		if !c.limiter.Allow() {
			c.log.WithField("player", c.ID()).Debug("输入过于频繁，丢弃")
			return nil
		}
		c.server.handleInput(c, event.Input)

	case EventPing:
		c.server.handlePing(c, event.Ping)

	case EventPong:
		c.handlePong(event.Pong)

	case EventReconnect:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家 %d 已在对局中", c.ID())
		}
		return c.server.handleReconnect(c, event.Reconnect)

	case EventRoomList:
		c.server.handleRoomList(c)

	case EventLeave:
		if c.ID() >= 0 {
			c.server.handleLeave(c, true)
			c.SetPlayerID(-1)
		}

	default:
		return errors.New("未知消息类型")
	}
	return nil
}

func (c *Connection) heartbeatLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if time.Since(lastRecv) > heartbeatTimeout {
				c.log.WithField("player", c.ID()).Info("心跳超时")
				c.Close()
				return
			}
			c.sendPacket(protocol.NewPingPacket(time.Now().UnixMilli()))
		}
	}
}

func (c *Connection) handlePong(pong *PongEvent) {
	if pong == nil || pong.ClientTime <= 0 {
		return
	}
	c.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
}

// RTT 最近一次心跳往返时间
func (c *Connection) RTT() time.Duration {
	return time.Duration(c.rtt.Load()) * time.Millisecond
}

func (c *Connection) String() string {
	if id := c.ID(); id >= 0 {
		return fmt.Sprintf("Connection{%d, %s}", id, c.conn.RemoteAddr())
	}
	return fmt.Sprintf("Connection{%s}", c.conn.RemoteAddr())
}

func (c *Connection) ID() int32            { return c.playerID.Load() }
func (c *Connection) SetPlayerID(id int32) { c.playerID.Store(id) }
func (c *Connection) SetRoomID(id string)  { c.roomID.Store(id) }

func (c *Connection) RoomID() string {
	id, _ := c.roomID.Load().(string)
	return id
}
