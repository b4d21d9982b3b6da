package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bomberfox/pkg/core"
	"bomberfox/pkg/level"
	"bomberfox/pkg/protocol"
)

const (
	ServerTPS    = 60 // 服务器每秒更新次数
	TickDuration = time.Second / ServerTPS

	DefaultResetDelay     = 3 * time.Second
	DefaultReconnectGrace = 10 * time.Second
)

// GameState 服务端房间状态
type GameState int

const (
	StateWaiting GameState = iota
	StateRunning
	StateEnding
)

func (s GameState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRunning:
		return "running"
	case StateEnding:
		return "ending"
	}
	return "unknown"
}

var (
	ErrRoomClosed = errors.New("房间已关闭")
	ErrRoomFull   = errors.New("房间已满")
	ErrRoomEnding = errors.New("房间结算中，暂时无法加入")
	ErrNoSeat     = errors.New("座位不存在或已过期")
)

// RoomConfig 房间参数
type RoomConfig struct {
	MaxPlayers     int
	Seed           int64
	Layout         *level.Layout // 为空时每关随机生成
	ResetDelay     time.Duration
	ReconnectGrace time.Duration
}

func (c RoomConfig) withDefaults() RoomConfig {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 4
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = DefaultResetDelay
	}
	if c.ReconnectGrace <= 0 {
		c.ReconnectGrace = DefaultReconnectGrace
	}
	return c
}

// RoomStats 房间统计信息，可在房间循环外读取
type RoomStats struct {
	PlayerCount int
	State       GameState
	FrameID     int32
	Level       int
}

// seat 一个玩家在房间里的位置，断线后保留到 disconnectedAt+grace
type seat struct {
	session        Session
	name           string
	start          int
	disconnectedAt time.Time
}

type Room struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    RoomConfig
	log    logrus.FieldLogger
	tokens *TokenIssuer
	now    func() time.Time

	game    *core.Game
	starts  []core.Cell
	matchID string
	level   int
	frameID int32
	state   GameState
	outcome core.Status
	resetAt time.Time

	seats      map[int32]*seat
	inputQueue map[int32]core.Input

	joinCh      chan joinRequest
	inputCh     chan inputEvent
	leaveCh     chan leaveEvent
	reconnectCh chan reconnectRequest

	stats atomic.Value // RoomStats
}

type joinRequest struct {
	session Session
	req     JoinEvent
	respCh  chan error
}

type inputEvent struct {
	playerID int32
	input    core.Input
}

type leaveEvent struct {
	playerID int32
	session  Session
	explicit bool
}

type reconnectRequest struct {
	session Session
	claims  *Claims
	respCh  chan error
}

// NewRoom 创建房间并生成第一关
func NewRoom(parent context.Context, id string, cfg RoomConfig, tokens *TokenIssuer, log logrus.FieldLogger) (*Room, error) {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg.withDefaults(),
		log:         log.WithField("room", id),
		tokens:      tokens,
		now:         time.Now,
		level:       1,
		seats:       make(map[int32]*seat),
		inputQueue:  make(map[int32]core.Input),
		joinCh:      make(chan joinRequest),
		inputCh:     make(chan inputEvent, 256),
		leaveCh:     make(chan leaveEvent, 256),
		reconnectCh: make(chan reconnectRequest),
	}
	if err := r.newMatch(); err != nil {
		cancel()
		return nil, err
	}
	return r, nil
}

func (r *Room) ID() string { return r.id }

// Stats 最近一次房间循环后的统计
func (r *Room) Stats() RoomStats {
	s, _ := r.stats.Load().(RoomStats)
	return s
}

func (r *Room) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	r.log.WithField("tps", ServerTPS).Info("房间循环启动")

	for {
		select {
		case <-r.ctx.Done():
			r.closeAllSessions()
			r.log.Info("房间循环停止")
			return

		case req := <-r.joinCh:
			req.respCh <- r.handleJoin(req.session, req.req)

		case req := <-r.reconnectCh:
			req.respCh <- r.handleReconnect(req.session, req.claims)

		case ev := <-r.inputCh:
			r.handleInput(ev)

		case ev := <-r.leaveCh:
			r.handleLeave(ev.playerID, ev.session, ev.explicit)

		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Room) Shutdown() {
	r.cancel()
}

// Join 加入房间，阻塞到房间循环处理完毕
func (r *Room) Join(session Session, req JoinEvent) error {
	respCh := make(chan error, 1)
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.joinCh <- joinRequest{session: session, req: req, respCh: respCh}:
	}
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

// Reconnect 用新连接接管断线的座位
func (r *Room) Reconnect(session Session, claims *Claims) error {
	respCh := make(chan error, 1)
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.reconnectCh <- reconnectRequest{session: session, claims: claims, respCh: respCh}:
	}
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

func (r *Room) EnqueueInput(playerID int32, input core.Input) {
	select {
	case <-r.ctx.Done():
	case r.inputCh <- inputEvent{playerID: playerID, input: input}:
	}
}

// Leave explicit 为真表示主动离开，否则只是断线，座位保留一段时间
func (r *Room) Leave(session Session, explicit bool) {
	select {
	case <-r.ctx.Done():
	case r.leaveCh <- leaveEvent{playerID: session.ID(), session: session, explicit: explicit}:
	}
}

// ========== 房间循环内部 ==========

// newMatch 生成当前关卡的新对局
func (r *Room) newMatch() error {
	cfg := core.DefaultConfig()
	cfg.Seed = r.cfg.Seed + int64(r.level)

	game, starts, err := level.NewGame(cfg, r.cfg.Layout, r.level, core.WithLogger(r.log))
	if err != nil {
		return fmt.Errorf("生成关卡: %w", err)
	}
	game.OnEvent(r.onGameEvent)

	r.game = game
	r.starts = starts
	r.matchID = uuid.NewString()
	r.frameID = 0
	r.inputQueue = make(map[int32]core.Input)
	r.log.WithFields(logrus.Fields{"match": r.matchID, "level": r.level}).Info("新对局")
	r.publishStats()
	return nil
}

func (r *Room) capacity() int {
	return min(r.cfg.MaxPlayers, len(r.starts))
}

func (r *Room) handleJoin(session Session, req JoinEvent) error {
	if r.state == StateEnding {
		return ErrRoomEnding
	}
	if len(r.seats) >= r.capacity() {
		return fmt.Errorf("%w (%d/%d)", ErrRoomFull, len(r.seats), r.capacity())
	}

	st := &seat{session: session, name: req.PlayerName, start: r.freeStart()}
	playerID, err := r.seatPlayer(st)
	if err != nil {
		return err
	}
	if err := r.welcome(playerID, st); err != nil {
		r.game.RemovePlayer(int(playerID))
		delete(r.seats, playerID)
		session.SetPlayerID(-1)
		return err
	}

	r.log.WithFields(logrus.Fields{
		"player": playerID,
		"name":   req.PlayerName,
		"cell":   r.starts[st.start],
	}).Info("玩家加入")

	r.state = StateRunning
	r.publishStats()
	return nil
}

// freeStart 找到编号最小的空闲出生点
func (r *Room) freeStart() int {
	used := make(map[int]bool, len(r.seats))
	for _, s := range r.seats {
		used[s.start] = true
	}
	for i := range r.starts {
		if !used[i] {
			return i
		}
	}
	return 0
}

// seatPlayer 在对局中为座位创建玩家
func (r *Room) seatPlayer(st *seat) (int32, error) {
	p, err := r.game.AddPlayer(r.starts[st.start])
	if err != nil {
		return 0, fmt.Errorf("创建玩家: %w", err)
	}
	playerID := int32(p.ID)
	st.session.SetPlayerID(playerID)
	r.seats[playerID] = st
	return playerID, nil
}

// welcome 发送加入响应，包含新的会话 Token
func (r *Room) welcome(playerID int32, st *seat) error {
	token, err := r.tokens.Issue(playerID, r.id, r.matchID)
	if err != nil {
		return fmt.Errorf("签发 Token: %w", err)
	}
	pkt, err := protocol.NewJoinResponsePacket(protocol.JoinResponse{
		Success:      true,
		PlayerID:     playerID,
		SessionToken: token,
		RoomID:       r.id,
		MatchID:      r.matchID,
		Level:        int32(r.level),
		TPS:          ServerTPS,
	})
	if err != nil {
		return err
	}
	return r.send(st.session, pkt)
}

func (r *Room) handleReconnect(session Session, claims *Claims) error {
	st, ok := r.seats[claims.PlayerID]
	if !ok || claims.MatchID != r.matchID {
		return ErrNoSeat
	}
	if st.session != nil && st.session != session {
		st.session.CloseWithoutNotify()
	}
	st.session = session
	st.disconnectedAt = time.Time{}
	session.SetPlayerID(claims.PlayerID)
	session.SetRoomID(r.id)

	pkt, err := protocol.NewReconnectResponsePacket(protocol.ReconnectResponse{
		Success:  true,
		PlayerID: claims.PlayerID,
		RoomID:   r.id,
	})
	if err != nil {
		return err
	}
	if err := r.send(session, pkt); err != nil {
		return err
	}
	r.log.WithField("player", claims.PlayerID).Info("玩家重连")
	r.sendState(session)
	return nil
}

func (r *Room) handleInput(ev inputEvent) {
	if r.state != StateRunning {
		return
	}
	if _, ok := r.seats[ev.playerID]; !ok {
		return
	}
	// 同一帧内多次输入只保留最新方向，放炸弹不丢失
	prev := r.inputQueue[ev.playerID]
	ev.input.Bomb = ev.input.Bomb || prev.Bomb
	r.inputQueue[ev.playerID] = ev.input
}

// handleLeave 座位已被其他连接接管时忽略旧连接的离开
func (r *Room) handleLeave(playerID int32, session Session, explicit bool) {
	st, ok := r.seats[playerID]
	if !ok || (st.session != nil && st.session != session) {
		return
	}
	if st.session == nil && !explicit {
		return
	}
	if !explicit && r.state == StateRunning {
		st.session = nil
		st.disconnectedAt = r.now()
		delete(r.inputQueue, playerID)
		r.log.WithField("player", playerID).Info("玩家断线，保留座位")
		return
	}
	r.removeSeat(playerID)
}

func (r *Room) removeSeat(playerID int32) {
	delete(r.seats, playerID)
	delete(r.inputQueue, playerID)
	r.game.RemovePlayer(int(playerID))

	r.log.WithFields(logrus.Fields{"player": playerID, "players": len(r.seats)}).Info("玩家离开")

	if pkt, err := protocol.NewPlayerLeavePacket(playerID); err == nil {
		r.broadcast(pkt)
	}

	if len(r.seats) == 0 && r.state != StateEnding {
		r.state = StateWaiting
		if err := r.newMatch(); err != nil {
			r.log.WithError(err).Error("重建对局失败")
		}
	}
	r.publishStats()
}

// expireSeats 移除超过重连宽限期的座位
func (r *Room) expireSeats() {
	now := r.now()
	var expired []int32
	for id, st := range r.seats {
		if !st.disconnectedAt.IsZero() && now.Sub(st.disconnectedAt) > r.cfg.ReconnectGrace {
			expired = append(expired, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	for _, id := range expired {
		r.log.WithField("player", id).Info("重连超时")
		r.removeSeat(id)
	}
}

func (r *Room) tick() {
	r.expireSeats()

	if r.state == StateEnding {
		if r.now().After(r.resetAt) {
			r.nextMatch()
		}
		return
	}
	if r.state != StateRunning {
		return
	}

	r.applyInputs()
	r.game.Update(TickDuration)
	r.frameID++

	if status := r.game.Status(); status != core.StatusRunning {
		r.handleGameOver(status)
		return
	}
	r.broadcastState()
	r.publishStats()
}

func (r *Room) applyInputs() {
	if len(r.inputQueue) == 0 {
		return
	}
	inputs := r.inputQueue
	r.inputQueue = make(map[int32]core.Input, len(inputs))

	ids := make([]int32, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if r.game.ApplyInput(int(id), inputs[id]) {
			r.log.WithField("player", id).Debug("放置炸弹")
		}
	}
}

func (r *Room) handleGameOver(status core.Status) {
	if r.state == StateEnding {
		return
	}
	r.state = StateEnding
	r.outcome = status
	r.resetAt = r.now().Add(r.cfg.ResetDelay)

	winner := int32(-1)
	for _, p := range r.game.Players() {
		if p.Collected {
			winner = int32(p.ID)
			break
		}
	}
	r.log.WithFields(logrus.Fields{"status": status, "winner": winner, "level": r.level}).Info("游戏结束")

	r.broadcastState()
	pkt, err := protocol.NewGameOverPacket(protocol.GameOver{
		MatchID:  r.matchID,
		Status:   status.String(),
		WinnerID: winner,
		Level:    int32(r.level),
	})
	if err != nil {
		r.log.WithError(err).Error("构造游戏结束消息失败")
		return
	}
	r.broadcast(pkt)
	r.publishStats()
}

// nextMatch 结算结束后重建关卡，胜利进入下一关，在线玩家重新入座
func (r *Room) nextMatch() {
	if r.outcome == core.StatusWon {
		r.level++
	}
	r.outcome = core.StatusRunning

	var online []*seat
	ids := make([]int32, 0, len(r.seats))
	for id := range r.seats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if st := r.seats[id]; st.session != nil {
			online = append(online, st)
		}
	}

	r.seats = make(map[int32]*seat)
	r.resetAt = time.Time{}
	if err := r.newMatch(); err != nil {
		r.log.WithError(err).Error("重建对局失败")
		r.state = StateWaiting
		r.closeSessions(online)
		return
	}

	r.state = StateWaiting
	for _, st := range online {
		playerID, err := r.seatPlayer(st)
		if err == nil {
			err = r.welcome(playerID, st)
		}
		if err != nil {
			r.log.WithError(err).Warn("玩家重新入座失败")
			continue
		}
		r.state = StateRunning
	}
	r.publishStats()
}

func (r *Room) onGameEvent(ev core.Event) {
	pkt, err := protocol.NewGameEventPacket(ev)
	if err != nil {
		return
	}
	r.broadcast(pkt)
}

func (r *Room) broadcastState() {
	pkt, err := protocol.NewServerStatePacket(r.frameID, r.game.Snapshot())
	if err != nil {
		r.log.WithError(err).Error("构造状态失败")
		return
	}
	r.broadcast(pkt)
}

func (r *Room) sendState(session Session) {
	pkt, err := protocol.NewServerStatePacket(r.frameID, r.game.Snapshot())
	if err != nil {
		return
	}
	_ = r.send(session, pkt)
}

func (r *Room) broadcast(pkt *protocol.Packet) {
	data, err := protocol.Marshal(pkt)
	if err != nil {
		r.log.WithError(err).Error("序列化失败")
		return
	}
	for id, st := range r.seats {
		if st.session == nil {
			continue
		}
		if err := st.session.Send(data); err != nil {
			r.log.WithError(err).WithField("player", id).Warn("发送失败")
		}
	}
}

func (r *Room) send(session Session, pkt *protocol.Packet) error {
	data, err := protocol.Marshal(pkt)
	if err != nil {
		return err
	}
	return session.Send(data)
}

func (r *Room) closeAllSessions() {
	for _, st := range r.seats {
		if st.session != nil {
			st.session.CloseWithoutNotify()
		}
	}
}

func (r *Room) closeSessions(seats []*seat) {
	for _, st := range seats {
		st.session.CloseWithoutNotify()
	}
}

func (r *Room) publishStats() {
	r.stats.Store(RoomStats{
		PlayerCount: len(r.seats),
		State:       r.state,
		FrameID:     r.frameID,
		Level:       r.level,
	})
}
