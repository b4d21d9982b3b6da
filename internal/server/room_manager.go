package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bomberfox/pkg/protocol"
)

const (
	DefaultRoomID   = "default" // 默认房间 ID
	MaxRooms        = 100       // 最大房间数
	cleanupInterval = 30 * time.Second
)

type RoomManager struct {
	ctx       context.Context
	cfg       RoomConfig
	tokens    *TokenIssuer
	log       logrus.FieldLogger
	rooms     map[string]*Room // 房间 ID -> 房间
	roomMutex sync.RWMutex     // 保护 rooms map
	wg        sync.WaitGroup
	shutdown  chan struct{}
	once      sync.Once
}

// NewRoomManager 创建新的房间管理器
func NewRoomManager(ctx context.Context, cfg RoomConfig, tokens *TokenIssuer, log logrus.FieldLogger) *RoomManager {
	return &RoomManager{
		ctx:      ctx,
		cfg:      cfg,
		tokens:   tokens,
		log:      log,
		rooms:    make(map[string]*Room),
		shutdown: make(chan struct{}),
	}
}

// Run 创建默认房间并启动清理协程
func (m *RoomManager) Run() error {
	if _, err := m.getOrCreateRoom(DefaultRoomID); err != nil {
		return err
	}
	m.wg.Add(1)
	go m.cleanupLoop()
	return nil
}

func (m *RoomManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.cleanupEmptyRooms()
		}
	}
}

// cleanupEmptyRooms 清理空房间（保留默认房间）
func (m *RoomManager) cleanupEmptyRooms() {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	for roomID, room := range m.rooms {
		if roomID == DefaultRoomID {
			continue
		}
		if st := room.Stats(); st.PlayerCount == 0 && st.State != StateRunning {
			m.log.WithField("room", roomID).Info("清理空房间")
			room.Shutdown()
			delete(m.rooms, roomID)
		}
	}
}

func (m *RoomManager) getOrCreateRoom(roomID string) (*Room, error) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	if room, ok := m.rooms[roomID]; ok {
		return room, nil
	}
	if len(m.rooms) >= MaxRooms {
		return nil, fmt.Errorf("房间数已达上限 %d", MaxRooms)
	}

	room, err := NewRoom(m.ctx, roomID, m.cfg, m.tokens, m.log)
	if err != nil {
		return nil, fmt.Errorf("创建房间 %s: %w", roomID, err)
	}
	m.log.WithField("room", roomID).Info("创建新房间")
	m.rooms[roomID] = room

	m.wg.Add(1)
	go room.Run(&m.wg)
	return room, nil
}

func (m *RoomManager) room(roomID string) (*Room, bool) {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// Join 玩家加入房间
func (m *RoomManager) Join(session Session, req JoinEvent) error {
	roomID := req.RoomID
	if roomID == "" {
		roomID = DefaultRoomID
	}
	room, err := m.getOrCreateRoom(roomID)
	if err != nil {
		return err
	}

	session.SetRoomID(roomID)
	if err := room.Join(session, req); err != nil {
		session.SetRoomID("")
		return err
	}
	return nil
}

// EnqueueInput 将输入放入对应房间的队列
func (m *RoomManager) EnqueueInput(roomID string, playerID int32, input InputEvent) {
	room, ok := m.room(roomID)
	if !ok {
		m.log.WithFields(logrus.Fields{"room": roomID, "player": playerID}).Warn("房间不存在，输入被丢弃")
		return
	}
	room.EnqueueInput(playerID, input.Input)
}

// Leave 玩家离开或断线
func (m *RoomManager) Leave(session Session, explicit bool) {
	room, ok := m.room(session.RoomID())
	if !ok {
		return
	}
	room.Leave(session, explicit)
}

// Reconnect 校验 Token 后把新连接交给对应房间
func (m *RoomManager) Reconnect(session Session, token string) (*Claims, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	room, ok := m.room(claims.RoomID)
	if !ok {
		return nil, fmt.Errorf("房间 %s 不存在: %w", claims.RoomID, ErrNoSeat)
	}
	if err := room.Reconnect(session, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// CurrentFrame 房间当前帧号
func (m *RoomManager) CurrentFrame(roomID string) int32 {
	if room, ok := m.room(roomID); ok {
		return room.Stats().FrameID
	}
	return 0
}

// Rooms 房间列表，按 ID 排序
func (m *RoomManager) Rooms() []protocol.RoomInfo {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()

	out := make([]protocol.RoomInfo, 0, len(m.rooms))
	for id, room := range m.rooms {
		st := room.Stats()
		out = append(out, protocol.RoomInfo{
			ID:      id,
			Players: int32(st.PlayerCount),
			Max:     int32(room.cfg.MaxPlayers),
			Level:   int32(st.Level),
			Running: st.State == StateRunning,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetRoomStats 获取房间统计信息
func (m *RoomManager) GetRoomStats() map[string]RoomStats {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()

	stats := make(map[string]RoomStats, len(m.rooms))
	for id, room := range m.rooms {
		stats[id] = room.Stats()
	}
	return stats
}

// Shutdown 关闭所有房间并等待房间循环退出
func (m *RoomManager) Shutdown() {
	m.once.Do(func() {
		close(m.shutdown)

		m.roomMutex.Lock()
		m.log.WithField("rooms", len(m.rooms)).Info("关闭房间")
		for _, room := range m.rooms {
			room.Shutdown()
		}
		m.roomMutex.Unlock()

		m.wg.Wait()
		m.log.Info("所有房间已关闭")
	})
}
