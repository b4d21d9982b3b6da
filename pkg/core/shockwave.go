package core

import (
	"fmt"
	"time"
)

// ShockWave 冲击波片段，Blocked 一旦为真不再恢复
type ShockWave struct {
	Handle    Handle
	Cell      Cell
	Origin    Cell
	Direction Direction
	Distance  int
	Blocked   bool
	Fading    bool
	FadeDelay time.Duration

	// driver 分支所属的驱动器，前沿片段淡出后新片段挂到它下面
	driver Handle
}

func (g *Game) spawnShockWave(parent Handle, origin, cell Cell, dir Direction, distance int, fadeDelay time.Duration) (*ShockWave, error) {
	h, err := g.world.Spawn(CategoryShockWave, cell, parent)
	if err != nil {
		return nil, fmt.Errorf("生成冲击波: %w", err)
	}
	sw := &ShockWave{
		Handle:    h,
		Cell:      cell,
		Origin:    origin,
		Direction: dir,
		Distance:  distance,
		FadeDelay: fadeDelay,
	}
	g.waves[h] = sw

	g.sched.After(fadeDelay, h, func() {
		sw.Fading = true
		g.world.SetCollidable(h, false)
	})
	g.sched.After(fadeDelay+g.cfg.FadeOut, h, func() {
		g.world.Retire(h)
	})
	return sw, nil
}

// Continue 向 origin + direction*distance 扩展，返回分支的新前沿
func (s *ShockWave) Continue(g *Game, distance int) *ShockWave {
	if s.Blocked {
		return s
	}
	parent := s.Handle
	if !g.world.Alive(parent) {
		parent = s.driver
	}

	cell := s.Origin.Step(s.Direction, distance)
	res := g.collision.Resolve(Query{Self: s.Handle, Category: CategoryShockWave, Direction: s.Direction}, cell)
	if !res.Passable {
		s.Blocked = true
		return s
	}

	child, err := g.spawnShockWave(parent, s.Origin, cell, s.Direction, distance, s.FadeDelay)
	if err != nil {
		g.log.WithError(err).WithField("cell", cell).Warn("冲击波无法扩展")
		s.Blocked = true
		return s
	}
	child.driver = s.driver
	if res.Halt {
		child.Blocked = true
	}
	return child
}
