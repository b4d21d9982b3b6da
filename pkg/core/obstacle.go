package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ObstacleState 障碍状态
type ObstacleState int

const (
	ObstacleIntact ObstacleState = iota
	ObstacleBlownUp
)

// Obstacle 可破坏障碍，IsKey 为真时被炸毁后出现关卡出口
type Obstacle struct {
	Handle  Handle
	Cell    Cell
	IsKey   bool
	State   ObstacleState
	Impulse Direction // 被炸飞的方向，仅供表现层使用
}

// AddObstacle 放置障碍
func (g *Game) AddObstacle(cell Cell, isKey bool) (*Obstacle, error) {
	h, err := g.world.Spawn(CategoryObstacle, cell, Handle{})
	if err != nil {
		return nil, err
	}
	o := &Obstacle{Handle: h, Cell: cell, IsKey: isKey, State: ObstacleIntact}
	g.obstacles[h] = o
	return o, nil
}

// Obstacles 按生成顺序返回存活障碍
func (g *Game) Obstacles() []*Obstacle {
	var out []*Obstacle
	for _, occ := range g.world.All() {
		if o, ok := g.obstacles[occ.Handle]; ok {
			out = append(out, o)
		}
	}
	return out
}

// BlowUp 炸毁障碍：移除碰撞体，淡出后从竞技场删除，只生效一次
func (o *Obstacle) BlowUp(g *Game, dir Direction) bool {
	if o.State != ObstacleIntact {
		return false
	}
	o.State = ObstacleBlownUp
	o.Impulse = dir
	g.world.SetCollidable(o.Handle, false)
	g.emit(Event{Kind: EventObstacleDestroyed, Cell: o.Cell, Handle: o.Handle})

	if o.IsKey {
		if h, err := g.world.Spawn(CategoryExit, o.Cell, Handle{}); err != nil {
			g.log.WithError(err).WithField("cell", o.Cell).Error("生成出口失败")
		} else {
			g.log.WithField("cell", o.Cell).Info("出口出现")
			g.emit(Event{Kind: EventExitRevealed, Cell: o.Cell, Handle: h})
		}
	}

	removeAfter := time.Duration(float64(g.cfg.FadeOut) * obstacleRemoveFactor)
	g.sched.After(removeAfter, o.Handle, func() {
		g.world.Destroy(o.Handle)
	})
	g.log.WithFields(logrus.Fields{"cell": o.Cell, "key": o.IsKey}).Debug("障碍被炸毁")
	return true
}
