package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Explosion 爆炸中心，拥有驱动器和全部冲击波片段
type Explosion struct {
	Handle    Handle
	Cell      Cell
	OwnerID   int
	Range     int
	Interval  time.Duration
	FadeDelay time.Duration
	Lifetime  time.Duration
	StartedAt time.Duration
	Fading    bool
	Shock     *InitialShock
}

// startExplosion 在炸弹位置生成爆炸，读取参数后脱离并销毁炸弹
func (g *Game) startExplosion(b *Bomb) (*Explosion, error) {
	h, err := g.world.Spawn(CategoryExplosion, b.Cell, b.Handle)
	if err != nil {
		g.world.Destroy(b.Handle)
		return nil, fmt.Errorf("生成爆炸: %w", err)
	}

	ex := &Explosion{
		Handle:    h,
		Cell:      b.Cell,
		Range:     b.Params.Range,
		Interval:  b.Params.Interval(),
		FadeDelay: b.Params.FadeDelay,
		StartedAt: g.sched.Now(),
	}
	if b.Owner != nil {
		ex.OwnerID = b.Owner.ID
	}
	g.explosions[h] = ex

	g.world.Detach(h)
	g.world.Destroy(b.Handle)

	ex.Lifetime = ex.Interval*time.Duration(ex.Range) + ex.FadeDelay + g.cfg.FadeOut
	g.sched.After(ex.FadeDelay, h, func() {
		ex.Fading = true
	})
	g.sched.After(ex.Lifetime, h, func() {
		g.world.Destroy(h)
	})

	shock, err := g.spawnInitialShock(ex)
	if err != nil {
		return ex, err
	}
	ex.Shock = shock
	shock.BeginExploding(g)
	shock.BeginContinue(g)

	g.log.WithFields(logrus.Fields{
		"cell":     ex.Cell,
		"range":    ex.Range,
		"interval": ex.Interval,
	}).Debug("爆炸开始")
	return ex, nil
}

// InitialShock 冲击波驱动器：生成四个方向的种子并定时推进各分支前沿
type InitialShock struct {
	Handle    Handle
	Explosion Handle
	Origin    Cell
	Range     int
	Interval  time.Duration
	FadeDelay time.Duration
	Step      int
	Done      bool

	// branches 每个方向当前的前沿片段，顺序同 CardinalDirections
	branches [4]*ShockWave
}

func (g *Game) spawnInitialShock(ex *Explosion) (*InitialShock, error) {
	h, err := g.world.Spawn(CategoryInitialShock, ex.Cell, ex.Handle)
	if err != nil {
		return nil, fmt.Errorf("生成冲击波驱动器: %w", err)
	}
	s := &InitialShock{
		Handle:    h,
		Explosion: ex.Handle,
		Origin:    ex.Cell,
		Range:     ex.Range,
		Interval:  ex.Interval,
		FadeDelay: ex.FadeDelay,
	}
	g.shocks[h] = s
	return s, nil
}

// BeginExploding 点燃中心格并在中心生成四个方向的种子（距离 0）
func (s *InitialShock) BeginExploding(g *Game) {
	g.collision.Resolve(Query{Self: s.Explosion, Category: CategoryExplosion}, s.Origin)

	for i, dir := range CardinalDirections {
		sw, err := g.spawnShockWave(s.Handle, s.Origin, s.Origin, dir, 0, s.FadeDelay)
		if err != nil {
			g.log.WithError(err).WithField("direction", dir).Error("生成冲击波种子失败")
			continue
		}
		sw.driver = s.Handle
		s.branches[i] = sw
	}
}

// BeginContinue 安排第 1..Range 步，第 k 步在 k*Interval 之后执行
func (s *InitialShock) BeginContinue(g *Game) {
	for k := 1; k <= s.Range; k++ {
		step := k
		g.sched.After(s.Interval*time.Duration(step), s.Handle, func() {
			s.advance(g, step)
		})
	}
}

// advance 让每个分支前沿扩展一步，并把分支指向新的前沿
func (s *InitialShock) advance(g *Game, step int) {
	s.Step = step
	for i, head := range s.branches {
		if head == nil {
			continue
		}
		s.branches[i] = head.Continue(g, step)
	}
	if step >= s.Range {
		s.Done = true
	}
}

// Frontier 返回某方向分支的当前前沿
func (s *InitialShock) Frontier(dir Direction) *ShockWave {
	for i, d := range CardinalDirections {
		if d == dir {
			return s.branches[i]
		}
	}
	return nil
}

// Blocked 某方向分支是否已终止
func (s *InitialShock) Blocked(dir Direction) bool {
	head := s.Frontier(dir)
	return head == nil || head.Blocked
}
