package ai

import (
	"time"

	"bomberfox/pkg/core"
)

// DangerField 每个格子最早被冲击波覆盖的时间
type DangerField struct {
	earliest map[core.Cell]time.Duration
	seen     map[uint64]time.Duration // 炸弹 ID -> 第一次看到的时间
	now      time.Duration
}

func NewDangerField() *DangerField {
	return &DangerField{
		earliest: make(map[core.Cell]time.Duration),
		seen:     make(map[uint64]time.Duration),
	}
}

type plannedBomb struct {
	Cell core.Cell
	At   time.Duration
}

// Update 根据快照重算危险场。快照不带引信进度，按第一次看到炸弹的时间估算
func (df *DangerField) Update(g *grid, now time.Duration, cfg *Config) {
	df.now = now
	alive := make(map[uint64]bool, len(g.bombs))
	bombs := make([]plannedBomb, 0, len(g.bombs))
	for _, b := range g.bombs {
		alive[b.ID] = true
		first, ok := df.seen[b.ID]
		if !ok {
			first = now
			df.seen[b.ID] = now
		}
		bombs = append(bombs, plannedBomb{Cell: b.Cell, At: first + cfg.Fuse})
	}
	for id := range df.seen {
		if !alive[id] {
			delete(df.seen, id)
		}
	}
	df.earliest = compute(g, bombs, now, cfg.BombRange)
}

// WithBomb 假设在 cell 再放一颗炸弹后的危险场
func (df *DangerField) WithBomb(g *grid, cell core.Cell, cfg *Config) *DangerField {
	bombs := make([]plannedBomb, 0, len(g.bombs)+1)
	for _, b := range g.bombs {
		at := df.now + cfg.Fuse
		if first, ok := df.seen[b.ID]; ok {
			at = first + cfg.Fuse
		}
		bombs = append(bombs, plannedBomb{Cell: b.Cell, At: at})
	}
	bombs = append(bombs, plannedBomb{Cell: cell, At: df.now + cfg.Fuse})

	out := &DangerField{seen: df.seen, now: df.now}
	out.earliest = compute(g, bombs, df.now, cfg.BombRange)
	return out
}

func compute(g *grid, bombs []plannedBomb, now time.Duration, rng int) map[core.Cell]time.Duration {
	blasts := make([][]core.Cell, len(bombs))
	for i, b := range bombs {
		blasts[i] = g.blastCells(b.Cell, rng)
	}

	// 连锁引爆，直到稳定
	for changed := true; changed; {
		changed = false
		for i, b := range bombs {
			for _, c := range blasts[i] {
				for j := range bombs {
					if j != i && bombs[j].Cell == c && bombs[j].At > b.At {
						bombs[j].At = b.At
						changed = true
					}
				}
			}
		}
	}

	earliest := make(map[core.Cell]time.Duration)
	mark := func(c core.Cell, at time.Duration) {
		if prev, ok := earliest[c]; !ok || at < prev {
			earliest[c] = at
		}
	}
	for i, b := range bombs {
		for _, c := range blasts[i] {
			mark(c, b.At)
		}
	}
	for _, c := range g.hot {
		mark(c, now)
	}
	for _, c := range g.enemies {
		mark(c, now)
		for _, dir := range core.CardinalDirections {
			mark(c.Add(dir), now)
		}
	}
	return earliest
}

// Threatened 格子是否会被已知的炸弹、冲击波或敌人威胁
func (df *DangerField) Threatened(c core.Cell) bool {
	_, ok := df.earliest[c]
	return ok
}

// SafeAt 在 t 时刻进入格子是否安全
func (df *DangerField) SafeAt(c core.Cell, t time.Duration) bool {
	at, ok := df.earliest[c]
	return !ok || t < at
}
