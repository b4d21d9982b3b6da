package ai

import (
	"container/list"
	"time"

	"bomberfox/pkg/core"
)

type bombView struct {
	ID   uint64
	Cell core.Cell
}

// grid 从快照提取的寻路信息
type grid struct {
	bounds    core.Bounds
	blocked   map[core.Cell]bool // 玩家无法进入
	solid     map[core.Cell]bool // 方块，挡住冲击波且不会被炸开
	obstacles map[core.Cell]bool
	bombs     []bombView
	enemies   []core.Cell
	exits     []core.Cell
	hot       []core.Cell // 冲击波与爆炸中心
}

func newGrid(snap core.Snapshot) *grid {
	g := &grid{
		bounds:    snap.Bounds,
		blocked:   make(map[core.Cell]bool),
		solid:     make(map[core.Cell]bool),
		obstacles: make(map[core.Cell]bool),
	}
	for _, e := range snap.Entities {
		switch e.Category {
		case core.CategoryBlock:
			g.blocked[e.Cell] = true
			g.solid[e.Cell] = true
		case core.CategoryObstacle:
			// 被炸开的障碍已经没有碰撞
			if !e.Fading {
				g.blocked[e.Cell] = true
				g.obstacles[e.Cell] = true
			}
		case core.CategoryBomb:
			g.blocked[e.Cell] = true
			g.bombs = append(g.bombs, bombView{ID: e.ID, Cell: e.Cell})
		case core.CategoryEnemy:
			g.blocked[e.Cell] = true
			g.enemies = append(g.enemies, e.Cell)
		case core.CategoryExit:
			g.exits = append(g.exits, e.Cell)
		case core.CategoryShockWave, core.CategoryExplosion:
			g.hot = append(g.hot, e.Cell)
		}
	}
	return g
}

func (g *grid) walkable(c core.Cell) bool {
	return g.bounds.Contains(c) && !g.blocked[c]
}

// blastCells 炸弹在 origin 爆炸时威胁的格子，遇到方块停止，遇到障碍、炸弹或敌人时包含该格后停止
func (g *grid) blastCells(origin core.Cell, rng int) []core.Cell {
	cells := []core.Cell{origin}
	for _, dir := range core.CardinalDirections {
		for i := 1; i <= rng; i++ {
			c := origin.Step(dir, i)
			if !g.bounds.Contains(c) || g.solid[c] {
				break
			}
			cells = append(cells, c)
			if g.blocked[c] {
				break
			}
		}
	}
	return cells
}

type stepNode struct {
	Cell  core.Cell
	Prev  *stepNode
	Steps int
}

// nextStepToward BFS 求出走向 target 的第一步
func nextStepToward(g *grid, start, target core.Cell) (core.Cell, bool) {
	if start == target {
		return start, true
	}
	node := bfs(g, start, func(c core.Cell) bool { return c == target })
	if node == nil {
		return core.Cell{}, false
	}
	for node.Prev != nil && node.Prev.Cell != start {
		node = node.Prev
	}
	return node.Cell, true
}

// findNearest 离 start 最近的满足条件的可达格子（包括 start 本身）
func findNearest(g *grid, start core.Cell, accept func(core.Cell) bool) (core.Cell, bool) {
	node := bfs(g, start, accept)
	if node == nil {
		return core.Cell{}, false
	}
	return node.Cell, true
}

func bfs(g *grid, start core.Cell, accept func(core.Cell) bool) *stepNode {
	queue := list.New()
	visited := map[core.Cell]bool{start: true}
	queue.PushBack(&stepNode{Cell: start})

	for queue.Len() > 0 {
		n := queue.Remove(queue.Front()).(*stepNode)
		if accept(n.Cell) {
			return n
		}
		for _, dir := range core.CardinalDirections {
			next := n.Cell.Add(dir)
			if visited[next] || !g.walkable(next) {
				continue
			}
			visited[next] = true
			queue.PushBack(&stepNode{Cell: next, Prev: n, Steps: n.Steps + 1})
		}
	}
	return nil
}

// canEscape 在 danger 的预测下，能否在炸弹爆炸前走到一个不受威胁的格子
func canEscape(g *grid, danger *DangerField, start core.Cell, now, step time.Duration) bool {
	queue := list.New()
	visited := map[core.Cell]bool{start: true}
	queue.PushBack(&stepNode{Cell: start})

	for queue.Len() > 0 {
		n := queue.Remove(queue.Front()).(*stepNode)
		if !danger.Threatened(n.Cell) {
			return true
		}
		arrive := now + time.Duration(n.Steps+1)*step
		for _, dir := range core.CardinalDirections {
			next := n.Cell.Add(dir)
			if visited[next] || !g.walkable(next) || !danger.SafeAt(next, arrive) {
				continue
			}
			visited[next] = true
			queue.PushBack(&stepNode{Cell: next, Prev: n, Steps: n.Steps + 1})
		}
	}
	return false
}

// inputToward 走向相邻格子的输入
func inputToward(from, to core.Cell) core.Input {
	dx, dy := to.X-from.X, to.Y-from.Y
	switch {
	case dx > 0:
		return core.Input{Right: true}
	case dx < 0:
		return core.Input{Left: true}
	case dy > 0:
		return core.Input{Up: true}
	case dy < 0:
		return core.Input{Down: true}
	}
	return core.Input{}
}

func directionInput(d core.Direction) core.Input {
	return inputToward(core.Cell{}, core.Cell{}.Add(d))
}
