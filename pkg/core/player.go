package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Health 生命值
type Health struct {
	current int
	max     int
}

// NewHealth 创建满血的生命值
func NewHealth(maxHealth int) Health {
	return Health{current: maxHealth, max: maxHealth}
}

func (h Health) Value() int { return h.current }
func (h Health) Max() int   { return h.max }

// Damage 扣血
func (h *Health) Damage(amount int) {
	h.current -= amount
}

// Heal 回血，不超过上限
func (h *Health) Heal(amount int) {
	h.current += amount
	if h.current > h.max {
		h.current = h.max
	}
}

// Player 玩家（纯逻辑，不包含渲染）
type Player struct {
	ID     int
	Handle Handle
	Cell   Cell
	Facing Direction
	Health Health

	MaxBombs     int
	CurrentBombs int
	Bomb         BombParams

	StepInterval      time.Duration
	NextMoveAt        time.Duration
	Invulnerability   time.Duration
	InvulnerableUntil time.Duration

	Dead      bool
	Collected bool
}

// AddPlayer 在格子上创建玩家
func (g *Game) AddPlayer(cell Cell) (*Player, error) {
	h, err := g.world.Spawn(CategoryPlayer, cell, Handle{})
	if err != nil {
		return nil, err
	}
	pc := g.cfg.Player
	p := &Player{
		ID:              g.nextPlayerID,
		Handle:          h,
		Cell:            cell,
		Facing:          DirDown,
		Health:          NewHealth(pc.MaxHealth),
		MaxBombs:        pc.MaxBombs,
		Bomb:            g.cfg.Bomb,
		StepInterval:    time.Duration(float64(time.Second) / pc.StepsPerSecond),
		Invulnerability: pc.Invulnerability,
	}
	g.nextPlayerID++
	g.players = append(g.players, p)
	g.log.WithFields(logrus.Fields{"player": p.ID, "cell": cell}).Info("玩家加入")
	return p, nil
}

// RemovePlayer 移除玩家（离开对局）
func (g *Game) RemovePlayer(id int) bool {
	for i, p := range g.players {
		if p.ID == id {
			g.world.Destroy(p.Handle)
			g.players = append(g.players[:i], g.players[i+1:]...)
			return true
		}
	}
	return false
}

// ChangeCurrentBombs 调整场上炸弹计数
func (p *Player) ChangeCurrentBombs(delta int) {
	p.CurrentBombs += delta
	if p.CurrentBombs < 0 {
		p.CurrentBombs = 0
	}
}

// Invulnerable 是否处于受伤后的无敌时间
func (p *Player) Invulnerable(now time.Duration) bool {
	return now < p.InvulnerableUntil
}

// Move 向相邻格子移动一步（返回是否成功移动）
func (p *Player) Move(g *Game, dir Direction) bool {
	if p.Dead || dir == DirNone {
		return false
	}
	now := g.sched.Now()
	if now < p.NextMoveAt {
		return false
	}
	p.Facing = dir

	target := p.Cell.Add(dir)
	if !g.collision.CheckPosition(Query{Self: p.Handle, Category: CategoryPlayer, Direction: dir}, target) {
		return false
	}
	if p.Dead {
		return false
	}
	if err := g.world.Move(p.Handle, target); err != nil {
		return false
	}
	p.Cell = target
	p.NextMoveAt = now + p.StepInterval
	return true
}

// PlaceBomb 在当前格子放置炸弹（返回 nil 表示无法放置）
func (p *Player) PlaceBomb(g *Game) *Bomb {
	if p.Dead || p.CurrentBombs >= p.MaxBombs {
		return nil
	}
	if !g.collision.Evaluate(Query{Self: p.Handle, Category: CategoryPlayer}, p.Cell).Passable {
		return nil
	}
	b, err := g.PlantBomb(p, p.Cell, p.Bomb)
	if err != nil {
		g.log.WithError(err).WithField("player", p.ID).Warn("放置炸弹失败")
		return nil
	}
	return b
}

// Damage 受到伤害，无敌时间内忽略（返回是否生效）
func (p *Player) Damage(g *Game, amount int) bool {
	now := g.sched.Now()
	if p.Dead || p.Invulnerable(now) {
		return false
	}
	p.Health.Damage(amount)
	g.emit(Event{Kind: EventPlayerDamaged, Cell: p.Cell, Handle: p.Handle, PlayerID: p.ID})

	if p.Health.Value() <= 0 {
		p.Dead = true
		g.world.SetCollidable(p.Handle, false)
		g.log.WithField("player", p.ID).Info("玩家死亡")
		g.emit(Event{Kind: EventPlayerDied, Cell: p.Cell, Handle: p.Handle, PlayerID: p.ID})
		return true
	}
	p.InvulnerableUntil = now + p.Invulnerability
	return true
}
