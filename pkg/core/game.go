package core

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Status 对局状态
type Status int

const (
	StatusRunning Status = iota
	StatusWon
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	}
	return "unknown"
}

// Option 游戏构造选项
type Option func(*Game)

// WithLogger 注入日志
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRules 替换碰撞规则表
func WithRules(rules RuleTable) Option {
	return func(g *Game) {
		g.rules = rules
	}
}

// Game 游戏上下文（纯逻辑，不包含渲染），所有组件通过它访问竞技场和调度器
type Game struct {
	cfg       Config
	log       logrus.FieldLogger
	world     *World
	sched     *Scheduler
	collision *CollisionHandler
	rules     RuleTable
	rng       *rand.Rand

	players    []*Player
	enemies    []*Enemy
	bombs      map[Handle]*Bomb
	obstacles  map[Handle]*Obstacle
	explosions map[Handle]*Explosion
	shocks     map[Handle]*InitialShock
	waves      map[Handle]*ShockWave

	status       Status
	paused       bool
	level        int
	nextPlayerID int
	observers    []func(Event)
}

// NewGame 创建游戏上下文，world 不能为空
func NewGame(world *World, cfg Config, opts ...Option) (*Game, error) {
	if world == nil {
		return nil, fmt.Errorf("创建游戏: 竞技场为空: %w", ErrMissingCollaborator)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("创建游戏: %w", err)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	g := &Game{
		cfg:          cfg,
		log:          discard,
		world:        world,
		sched:        NewScheduler(),
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		bombs:        make(map[Handle]*Bomb),
		obstacles:    make(map[Handle]*Obstacle),
		explosions:   make(map[Handle]*Explosion),
		shocks:       make(map[Handle]*InitialShock),
		waves:        make(map[Handle]*ShockWave),
		status:       StatusRunning,
		level:        1,
		nextPlayerID: 1,
	}
	for _, opt := range opts {
		opt(g)
	}

	collision, err := NewCollisionHandler(world, gameEffects{g: g}, g.rules)
	if err != nil {
		return nil, fmt.Errorf("创建游戏: %w", err)
	}
	g.collision = collision
	world.OnDestroy(g.onDestroyed)
	return g, nil
}

func (g *Game) World() *World { return g.world }
func (g *Game) Scheduler() *Scheduler { return g.sched }
func (g *Game) Collision() *CollisionHandler { return g.collision }
func (g *Game) Config() Config { return g.cfg }
func (g *Game) Logger() logrus.FieldLogger { return g.log }
func (g *Game) Now() time.Duration { return g.sched.Now() }
func (g *Game) Status() Status { return g.status }
func (g *Game) Level() int { return g.level }
func (g *Game) Paused() bool { return g.paused }
func (g *Game) SetPaused(paused bool) { g.paused = paused }
func (g *Game) OnEvent(fn func(Event)) { g.observers = append(g.observers, fn) }
func (g *Game) Players() []*Player { return append([]*Player(nil), g.players...) }
func (g *Game) Enemies() []*Enemy { return append([]*Enemy(nil), g.enemies...) }
func (g *Game) Bomb(h Handle) (*Bomb, bool) {
	b, ok := g.bombs[h]
	return b, ok
}

func (g *Game) Obstacle(h Handle) (*Obstacle, bool) {
	o, ok := g.obstacles[h]
	return o, ok
}

// SetLevel 设置关卡编号
func (g *Game) SetLevel(level int) {
	if level < 1 {
		level = 1
	}
	g.level = level
}

// Player 根据 ID 查找玩家
func (g *Game) Player(id int) (*Player, bool) {
	for _, p := range g.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Bombs 按生成顺序返回存活炸弹
func (g *Game) Bombs() []*Bomb {
	var out []*Bomb
	for _, o := range g.world.All() {
		if b, ok := g.bombs[o.Handle]; ok {
			out = append(out, b)
		}
	}
	return out
}

// ShockWaves 按生成顺序返回存活的冲击波片段
func (g *Game) ShockWaves() []*ShockWave {
	var out []*ShockWave
	for _, o := range g.world.All() {
		if sw, ok := g.waves[o.Handle]; ok {
			out = append(out, sw)
		}
	}
	return out
}

// ShockWavesAt 返回格子上存活的冲击波片段（含正在淡出的）
func (g *Game) ShockWavesAt(cell Cell) []*ShockWave {
	var out []*ShockWave
	for _, sw := range g.ShockWaves() {
		if sw.Cell == cell {
			out = append(out, sw)
		}
	}
	return out
}

// Explosions 按生成顺序返回存活爆炸
func (g *Game) Explosions() []*Explosion {
	var out []*Explosion
	for _, o := range g.world.All() {
		if ex, ok := g.explosions[o.Handle]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// AddBlock 放置不可破坏的方块
func (g *Game) AddBlock(cell Cell) (Handle, error) {
	return g.world.Spawn(CategoryBlock, cell, Handle{})
}

// Update 推进一个模拟步长
func (g *Game) Update(dt time.Duration) {
	if g.paused || g.status != StatusRunning || dt <= 0 {
		return
	}
	target := g.sched.Now() + dt

	for _, e := range g.Enemies() {
		if g.world.Alive(e.Handle) {
			e.Update(g, dt)
		}
	}
	g.checkContacts()
	g.sched.Advance(target, g.world.Alive)
	g.checkOutcome()
}

// ApplyInput 将输入应用到指定玩家，返回是否放置了炸弹
func (g *Game) ApplyInput(playerID int, in Input) bool {
	if g.paused || g.status != StatusRunning {
		return false
	}
	p, ok := g.Player(playerID)
	if !ok || p.Dead {
		return false
	}
	if dir := in.Direction(); dir != DirNone {
		p.Move(g, dir)
	}
	if in.Bomb {
		return p.PlaceBomb(g) != nil
	}
	return false
}

// checkContacts 敌人与玩家同格时造成伤害
func (g *Game) checkContacts() {
	for _, p := range g.players {
		if p.Dead {
			continue
		}
		for _, e := range g.enemies {
			if e.Dead || e.Cell != p.Cell {
				continue
			}
			p.Damage(g, 1)
			break
		}
	}
}

func (g *Game) checkOutcome() {
	if g.status != StatusRunning || len(g.players) == 0 {
		return
	}
	for _, p := range g.players {
		if p.Collected {
			g.finish(StatusWon)
			return
		}
	}
	for _, p := range g.players {
		if !p.Dead {
			return
		}
	}
	g.finish(StatusLost)
}

func (g *Game) finish(status Status) {
	if g.status != StatusRunning {
		return
	}
	g.status = status
	g.log.WithFields(logrus.Fields{"level": g.level, "status": status}).Info("对局结束")
}

func (g *Game) emit(ev Event) {
	ev.Time = g.sched.Now()
	g.log.WithFields(logrus.Fields{
		"event":  ev.Kind,
		"cell":   ev.Cell,
		"handle": ev.Handle,
	}).Debug("游戏事件")
	for _, fn := range g.observers {
		fn(ev)
	}
}

// onDestroyed 竞技场销毁回调，每个实体恰好一次
func (g *Game) onDestroyed(o Occupant) {
	switch o.Category {
	case CategoryBomb:
		if b, ok := g.bombs[o.Handle]; ok {
			delete(g.bombs, o.Handle)
			b.destroyed()
		}
	case CategoryEnemy:
		for i, e := range g.enemies {
			if e.Handle == o.Handle {
				e.Dead = true
				g.enemies = append(g.enemies[:i], g.enemies[i+1:]...)
				g.emit(Event{Kind: EventEnemyKilled, Cell: o.Cell, Handle: o.Handle})
				break
			}
		}
	case CategoryObstacle:
		delete(g.obstacles, o.Handle)
	case CategoryExplosion:
		delete(g.explosions, o.Handle)
	case CategoryInitialShock:
		delete(g.shocks, o.Handle)
	case CategoryShockWave:
		delete(g.waves, o.Handle)
	}
}

// gameEffects 将碰撞规则的副作用转发给各组件
type gameEffects struct {
	g *Game
}

func (fx gameEffects) Detonate(h Handle) {
	if b, ok := fx.g.bombs[h]; ok {
		b.Explode(fx.g)
	}
}

func (fx gameEffects) Kill(h Handle) {
	for _, e := range fx.g.enemies {
		if e.Handle == h {
			e.Kill(fx.g)
			return
		}
	}
}

func (fx gameEffects) BlowUp(h Handle, dir Direction) {
	if o, ok := fx.g.obstacles[h]; ok {
		o.BlowUp(fx.g, dir)
	}
}

func (fx gameEffects) Damage(h Handle) {
	for _, p := range fx.g.players {
		if p.Handle == h {
			p.Damage(fx.g, 1)
			return
		}
	}
}

func (fx gameEffects) Collect(exit, by Handle) {
	g := fx.g
	for _, p := range g.players {
		if p.Handle != by || p.Dead {
			continue
		}
		cell := p.Cell
		if o, ok := g.world.Get(exit); ok {
			cell = o.Cell
		}
		if !g.world.Destroy(exit) {
			return
		}
		p.Collected = true
		g.emit(Event{Kind: EventExitCollected, Cell: cell, Handle: exit, PlayerID: p.ID})
		return
	}
}
