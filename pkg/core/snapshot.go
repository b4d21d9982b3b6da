package core

import "time"

// ID 将句柄压缩为一个整数，便于网络传输
func (h Handle) ID() uint64 {
	return uint64(h.index)<<32 | uint64(h.gen)
}

// OccupantView 渲染/同步用的实体快照
type OccupantView struct {
	ID       uint64
	Category Category
	Cell     Cell
	Fading   bool
	Dir      Direction
	Distance int
}

// PlayerView 玩家快照
type PlayerView struct {
	ID           int
	Cell         Cell
	Facing       Direction
	Health       int
	MaxHealth    int
	CurrentBombs int
	MaxBombs     int
	Invulnerable bool
	Dead         bool
}

// Snapshot 某一时刻的完整游戏状态
type Snapshot struct {
	Time     time.Duration
	Level    int
	Status   Status
	Paused   bool
	Bounds   Bounds
	Entities []OccupantView
	Players  []PlayerView
}

// Snapshot 生成当前状态快照，实体按生成顺序排列，内部驱动器不输出
func (g *Game) Snapshot() Snapshot {
	now := g.sched.Now()
	snap := Snapshot{
		Time:   now,
		Level:  g.level,
		Status: g.status,
		Paused: g.paused,
		Bounds: g.world.Bounds(),
	}

	for _, o := range g.world.All() {
		view := OccupantView{ID: o.Handle.ID(), Category: o.Category, Cell: o.Cell}
		switch o.Category {
		case CategoryInitialShock, CategoryReserved:
			continue
		case CategoryShockWave:
			if sw, ok := g.waves[o.Handle]; ok {
				view.Fading = sw.Fading
				view.Dir = sw.Direction
				view.Distance = sw.Distance
			}
		case CategoryExplosion:
			if ex, ok := g.explosions[o.Handle]; ok {
				view.Fading = ex.Fading
			}
		case CategoryObstacle:
			if ob, ok := g.obstacles[o.Handle]; ok {
				view.Fading = ob.State == ObstacleBlownUp
				view.Dir = ob.Impulse
			}
		case CategoryPlayer:
			continue
		}
		snap.Entities = append(snap.Entities, view)
	}

	for _, p := range g.players {
		snap.Players = append(snap.Players, PlayerView{
			ID:           p.ID,
			Cell:         p.Cell,
			Facing:       p.Facing,
			Health:       p.Health.Value(),
			MaxHealth:    p.Health.Max(),
			CurrentBombs: p.CurrentBombs,
			MaxBombs:     p.MaxBombs,
			Invulnerable: p.Invulnerable(now),
			Dead:         p.Dead,
		})
	}
	return snap
}
