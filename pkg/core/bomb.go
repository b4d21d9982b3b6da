package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// BombState 炸弹状态
type BombState int

const (
	BombArmed     BombState = iota // 引信燃烧中
	BombExploding                  // 已触发爆炸
	BombDestroyed                  // 已从竞技场移除
)

func (s BombState) String() string {
	switch s {
	case BombArmed:
		return "armed"
	case BombExploding:
		return "exploding"
	case BombDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Bomb 炸弹（纯逻辑结构，不包含渲染）
type Bomb struct {
	Handle   Handle
	Cell     Cell
	Owner    *Player
	Params   BombParams
	State    BombState
	PlacedAt time.Duration
}

// PlantBomb 在格子上放置属于 owner 的炸弹，引信到时自动爆炸
func (g *Game) PlantBomb(owner *Player, cell Cell, params BombParams) (*Bomb, error) {
	if owner == nil {
		return nil, fmt.Errorf("放置炸弹于 %v: %w", cell, ErrNoOwner)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("放置炸弹于 %v: %w", cell, err)
	}
	h, err := g.world.Spawn(CategoryBomb, cell, Handle{})
	if err != nil {
		return nil, err
	}

	b := &Bomb{
		Handle:   h,
		Cell:     cell,
		Owner:    owner,
		Params:   params,
		State:    BombArmed,
		PlacedAt: g.sched.Now(),
	}
	g.bombs[h] = b
	owner.ChangeCurrentBombs(1)

	g.sched.After(params.Fuse, h, func() {
		b.Explode(g)
	})

	g.log.WithFields(logrus.Fields{"player": owner.ID, "cell": cell, "range": params.Range}).Debug("放置炸弹")
	g.emit(Event{Kind: EventBombPlaced, Cell: cell, Handle: h, PlayerID: owner.ID})
	return b, nil
}

// Explode 引爆炸弹，只有第一次调用生效（引信到时或被冲击波连锁引爆）
func (b *Bomb) Explode(g *Game) bool {
	if b.State != BombArmed {
		return false
	}
	b.State = BombExploding

	ownerID := 0
	if b.Owner != nil {
		ownerID = b.Owner.ID
	}
	g.emit(Event{Kind: EventBombExploded, Cell: b.Cell, Handle: b.Handle, PlayerID: ownerID})

	if _, err := g.startExplosion(b); err != nil {
		g.log.WithError(err).WithField("cell", b.Cell).Error("创建爆炸失败")
	}
	return true
}

// destroyed 炸弹离开竞技场时通知所属玩家，只会执行一次
func (b *Bomb) destroyed() {
	if b.State == BombDestroyed {
		return
	}
	b.State = BombDestroyed
	if b.Owner != nil {
		b.Owner.ChangeCurrentBombs(-1)
	}
}
