package core

import (
	"time"

	"bomberfox/pkg/ai/bt"
)

// Enemy 敌人：出生后短暂停留，看到玩家就追，否则沿随机方向游荡
type Enemy struct {
	Handle       Handle
	Cell         Cell
	Speed        float64 // 格/秒
	LookDistance int
	SpawnDelay   time.Duration
	Dead         bool

	age       time.Duration
	target    Cell
	randomDir Direction
	lastSeen  Cell
	seen      bool
	reserved  Handle
	progress  float64
	tree      bt.Node[*enemyBlackboard]
}

type enemyBlackboard struct {
	game  *Game
	enemy *Enemy
	dt    time.Duration
}

// AddEnemy 在格子上创建敌人
func (g *Game) AddEnemy(cell Cell) (*Enemy, error) {
	h, err := g.world.Spawn(CategoryEnemy, cell, Handle{})
	if err != nil {
		return nil, err
	}
	ec := g.cfg.Enemy
	e := &Enemy{
		Handle:       h,
		Cell:         cell,
		Speed:        ec.Speed,
		LookDistance: ec.LookDistance,
		SpawnDelay:   ec.SpawnDelay,
		tree:         newEnemyTree(),
	}
	e.defineRandomDirection(g)
	e.target = cell.Add(e.randomDir)
	g.enemies = append(g.enemies, e)
	return e, nil
}

func newEnemyTree() bt.Node[*enemyBlackboard] {
	return &bt.Sequence[*enemyBlackboard]{Children: []bt.Node[*enemyBlackboard]{
		&bt.Condition[*enemyBlackboard]{Check: condAwake},
		&bt.Action[*enemyBlackboard]{Do: actLook},
		&bt.Selector[*enemyBlackboard]{Children: []bt.Node[*enemyBlackboard]{
			&bt.Sequence[*enemyBlackboard]{Children: []bt.Node[*enemyBlackboard]{
				&bt.Condition[*enemyBlackboard]{Check: condAtTarget},
				&bt.Action[*enemyBlackboard]{Do: actRetarget},
			}},
			bt.Succeed[*enemyBlackboard](),
		}},
		&bt.Selector[*enemyBlackboard]{Children: []bt.Node[*enemyBlackboard]{
			&bt.Sequence[*enemyBlackboard]{Children: []bt.Node[*enemyBlackboard]{
				&bt.Condition[*enemyBlackboard]{Check: condNeedsReservation},
				&bt.Action[*enemyBlackboard]{Do: actReserve},
			}},
			&bt.Action[*enemyBlackboard]{Do: actAdvance},
		}},
	}}
}

// Update 每帧更新敌人
func (e *Enemy) Update(g *Game, dt time.Duration) {
	if e.Dead {
		return
	}
	e.age += dt
	e.tree.Tick(&enemyBlackboard{game: g, enemy: e, dt: dt})
}

// Target 当前移动目标
func (e *Enemy) Target() Cell { return e.target }

// Reserved 当前预占的格子句柄
func (e *Enemy) Reserved() Handle { return e.reserved }

// Kill 消灭敌人，预占标记随之销毁
func (e *Enemy) Kill(g *Game) bool {
	if e.Dead {
		return false
	}
	return g.world.Destroy(e.Handle)
}

func (e *Enemy) query(dir Direction) Query {
	return Query{Self: e.Handle, Category: CategoryEnemy, Direction: dir}
}

// defineRandomDirection 随机挑选可通行方向，最多尝试若干次，否则原地不动
func (e *Enemy) defineRandomDirection(g *Game) {
	for i := 0; i < enemyDirectionRetries; i++ {
		dir := CardinalDirections[g.rng.Intn(len(CardinalDirections))]
		if g.collision.Evaluate(e.query(dir), e.Cell.Add(dir)).Passable {
			e.randomDir = dir
			return
		}
	}
	e.randomDir = DirNone
}

// lookForPlayer 沿四个方向查看，视线被第一个实心占位物挡住
func (e *Enemy) lookForPlayer(g *Game) (Cell, bool) {
	now := g.sched.Now()
	for _, dir := range CardinalDirections {
		for d := 1; d <= e.LookDistance; d++ {
			cell := e.Cell.Step(dir, d)
			if !g.world.Bounds().Contains(cell) {
				break
			}
			hit, ok := firstSolid(g.world.OccupantsAt(cell))
			if !ok {
				continue
			}
			if hit.Category == CategoryPlayer {
				for _, p := range g.players {
					if p.Handle == hit.Handle && !p.Dead && !p.Invulnerable(now) {
						return cell, true
					}
				}
			}
			break
		}
	}
	return Cell{}, false
}

func firstSolid(occupants []Occupant) (Occupant, bool) {
	for _, o := range occupants {
		switch o.Category {
		case CategoryBlock, CategoryObstacle, CategoryBomb, CategoryEnemy, CategoryPlayer:
			return o, true
		}
	}
	return Occupant{}, false
}

// setNewTarget 优先追击看到的玩家，其次沿原随机方向，最后重新随机
func (e *Enemy) setNewTarget(g *Game) {
	if e.seen {
		dir := Toward(e.Cell, e.lastSeen)
		next := e.Cell.Add(dir)
		if dir != DirNone && g.collision.Evaluate(e.query(dir), next).Passable {
			e.target = next
			return
		}
	} else if e.randomDir != DirNone {
		next := e.Cell.Add(e.randomDir)
		if g.collision.Evaluate(e.query(e.randomDir), next).Passable {
			e.target = next
			return
		}
	}
	e.defineRandomDirection(g)
	e.target = e.Cell.Add(e.randomDir)
}

func (e *Enemy) releaseReservation(g *Game) {
	if !e.reserved.IsZero() {
		g.world.Destroy(e.reserved)
		e.reserved = Handle{}
	}
}

func condAwake(bb *enemyBlackboard) bool {
	return bb.enemy.age >= bb.enemy.SpawnDelay
}

func actLook(bb *enemyBlackboard) bt.Status {
	e := bb.enemy
	e.lastSeen, e.seen = e.lookForPlayer(bb.game)
	return bt.StatusSuccess
}

func condAtTarget(bb *enemyBlackboard) bool {
	return bb.enemy.Cell == bb.enemy.target
}

func actRetarget(bb *enemyBlackboard) bt.Status {
	e := bb.enemy
	e.releaseReservation(bb.game)
	e.setNewTarget(bb.game)
	return bt.StatusSuccess
}

func condNeedsReservation(bb *enemyBlackboard) bool {
	e := bb.enemy
	return e.reserved.IsZero() && e.target != e.Cell
}

// actReserve 目标空闲时放置预占标记；否则换一个方向
func actReserve(bb *enemyBlackboard) bt.Status {
	g, e := bb.game, bb.enemy
	dir := Toward(e.Cell, e.target)
	if !g.collision.Evaluate(e.query(dir), e.target).Passable {
		e.defineRandomDirection(g)
		e.target = e.Cell.Add(e.randomDir)
		return bt.StatusSuccess
	}
	h, err := g.world.Spawn(CategoryReserved, e.target, e.Handle)
	if err != nil {
		e.target = e.Cell
		return bt.StatusFailure
	}
	e.reserved = h
	e.progress = 0
	return bt.StatusSuccess
}

// actAdvance 朝预占的目标移动，累计满一格后进入目标格
func actAdvance(bb *enemyBlackboard) bt.Status {
	g, e := bb.game, bb.enemy
	if e.reserved.IsZero() {
		return bt.StatusFailure
	}
	e.progress += e.Speed * bb.dt.Seconds()
	if e.progress < 1 {
		return bt.StatusRunning
	}
	e.progress = 0

	dir := Toward(e.Cell, e.target)
	if !g.collision.CheckPosition(e.query(dir), e.target) {
		if e.Dead {
			return bt.StatusFailure
		}
		e.releaseReservation(g)
		e.setNewTarget(g)
		return bt.StatusFailure
	}
	if e.Dead {
		return bt.StatusFailure
	}
	if err := g.world.Move(e.Handle, e.target); err != nil {
		return bt.StatusFailure
	}
	e.Cell = e.target
	return bt.StatusSuccess
}
