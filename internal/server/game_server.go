package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"bomberfox/internal/config"
	"bomberfox/pkg/level"
	"bomberfox/pkg/protocol"
)

// GameServer 游戏服务器：接受连接，把消息转交给房间管理器
type GameServer struct {
	cfg     config.Server
	log     logrus.FieldLogger
	tokens  *TokenIssuer
	manager *RoomManager

	listener protocol.Listener
	ready    chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	connWG   sync.WaitGroup
	shutdown sync.Once
}

// NewGameServer 创建游戏服务器，fs 用来读取可选的关卡模板
func NewGameServer(cfg config.Server, fs afero.Fs, log logrus.FieldLogger) (*GameServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	roomCfg := RoomConfig{MaxPlayers: cfg.MaxPlayers, Seed: cfg.Seed}
	if cfg.LayoutFile != "" {
		layout, err := level.Load(fs, cfg.LayoutFile)
		if err != nil {
			return nil, err
		}
		roomCfg.Layout = layout
	}

	ctx, cancel := context.WithCancel(context.Background())
	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	return &GameServer{
		cfg:     cfg,
		log:     log,
		tokens:  tokens,
		manager: NewRoomManager(ctx, roomCfg, tokens, log),
		ready:   make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start 启动服务器，阻塞到 Shutdown
func (s *GameServer) Start() error {
	listener, err := protocol.Listen(s.cfg.Proto, s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	s.listener = listener
	if err := s.manager.Run(); err != nil {
		_ = listener.Close()
		return err
	}
	s.log.WithFields(logrus.Fields{"addr": listener.Addr().String(), "proto": s.cfg.Proto}).Info("服务器监听中")
	close(s.ready)

	s.wg.Add(1)
	go s.acceptLoop()

	<-s.ctx.Done()
	return nil
}

// Ready 监听成功后关闭
func (s *GameServer) Ready() <-chan struct{} { return s.ready }

// Addr 实际监听地址，Ready 之前为空
func (s *GameServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown 优雅关闭服务器
func (s *GameServer) Shutdown() {
	s.shutdown.Do(func() {
		s.log.Info("正在关闭服务器...")
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.wg.Wait()
		s.connWG.Wait()
		s.manager.Shutdown()
		s.log.Info("服务器已关闭")
	})
}

func (s *GameServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithError(err).Warn("接受连接失败")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.log.WithField("remote", conn.RemoteAddr().String()).Info("新连接")
		c := NewConnection(conn, s, s.log, s.cfg.InputRate, s.cfg.InputBurst)
		s.connWG.Add(1)
		go c.Handle(s.ctx, &s.connWG)
	}
}

// ========== 消息处理 ==========

func (s *GameServer) handleJoin(c *Connection, ev *JoinEvent) error {
	if err := s.manager.Join(c, *ev); err != nil {
		c.sendPacket(protocol.NewJoinResponsePacket(protocol.JoinResponse{Error: err.Error()}))
		return fmt.Errorf("加入失败: %w", err)
	}
	return nil
}

func (s *GameServer) handleInput(c *Connection, ev *InputEvent) {
	s.manager.EnqueueInput(c.RoomID(), c.ID(), *ev)
}

func (s *GameServer) handlePing(c *Connection, ev *PingEvent) {
	c.sendPacket(protocol.NewPongPacket(protocol.Pong{
		ClientTime:  ev.ClientTime,
		ServerTime:  time.Now().UnixMilli(),
		ServerFrame: s.manager.CurrentFrame(c.RoomID()),
	}))
}

func (s *GameServer) handleReconnect(c *Connection, ev *ReconnectEvent) error {
	if _, err := s.manager.Reconnect(c, ev.SessionToken); err != nil {
		c.sendPacket(protocol.NewReconnectResponsePacket(protocol.ReconnectResponse{Error: err.Error()}))
		return fmt.Errorf("重连失败: %w", err)
	}
	return nil
}

func (s *GameServer) handleRoomList(c *Connection) {
	c.sendPacket(protocol.NewRoomListResponsePacket(s.manager.Rooms()))
}

func (s *GameServer) handleLeave(c *Connection, explicit bool) {
	s.manager.Leave(c, explicit)
}
