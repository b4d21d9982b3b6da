package ai

import (
	"bomberfox/pkg/ai/bt"
	"bomberfox/pkg/core"
)

func condSeesExit(bb *Blackboard) bool {
	return len(bb.grid.exits) > 0
}

// actMoveToExit 走到出口即可过关
func actMoveToExit(bb *Blackboard) bt.Status {
	exit, ok := findNearest(bb.grid, bb.Self.Cell, func(c core.Cell) bool {
		for _, e := range bb.grid.exits {
			if e == c {
				return true
			}
		}
		return false
	})
	if !ok {
		return bt.StatusFailure
	}
	step, ok := nextStepToward(bb.grid, bb.Self.Cell, exit)
	if !ok {
		return bt.StatusFailure
	}
	// 冲击波还没散，原地等
	if bb.Danger.Threatened(step) {
		return bt.StatusRunning
	}
	bb.NextInput = inputToward(bb.Self.Cell, step)
	return bt.StatusRunning
}

func condHasBombCapacity(bb *Blackboard) bool {
	limit := bb.Self.MaxBombs
	if bb.Config.MaxActiveBombs > 0 && bb.Config.MaxActiveBombs < limit {
		limit = bb.Config.MaxActiveBombs
	}
	return bb.Self.CurrentBombs < limit
}

func actFindTarget(bb *Blackboard) bt.Status {
	finders := []func(*Blackboard) (core.Cell, bool){findEnemyTarget, findObstacleTarget}
	if bb.Config.PreferObstacles {
		finders[0], finders[1] = finders[1], finders[0]
	}
	for _, find := range finders {
		if target, ok := find(bb); ok {
			bb.Target = &target
			return bt.StatusSuccess
		}
	}
	return bt.StatusFailure
}

// findObstacleTarget 离自己最近的、紧挨障碍且安全的格子
func findObstacleTarget(bb *Blackboard) (core.Cell, bool) {
	return findNearest(bb.grid, bb.Self.Cell, func(c core.Cell) bool {
		if bb.Danger.Threatened(c) {
			return false
		}
		for _, dir := range core.CardinalDirections {
			if bb.grid.obstacles[c.Add(dir)] {
				return true
			}
		}
		return false
	})
}

// findEnemyTarget 离自己最近的、炸弹能波及到敌人的格子
func findEnemyTarget(bb *Blackboard) (core.Cell, bool) {
	if len(bb.grid.enemies) == 0 {
		return core.Cell{}, false
	}
	return findNearest(bb.grid, bb.Self.Cell, func(c core.Cell) bool {
		if c != bb.Self.Cell && bb.Danger.Threatened(c) {
			return false
		}
		blast := bb.grid.blastCells(c, bb.Config.BombRange)
		for _, e := range bb.grid.enemies {
			for _, b := range blast {
				if b == e {
					return true
				}
			}
		}
		return false
	})
}

// actPreCheckEscape 到达目标后，确认放下炸弹还能逃走
func actPreCheckEscape(bb *Blackboard) bt.Status {
	if bb.Target == nil {
		return bt.StatusFailure
	}
	if *bb.Target != bb.Self.Cell {
		return bt.StatusSuccess
	}
	// 底下已经有炸弹
	for _, b := range bb.grid.bombs {
		if b.Cell == bb.Self.Cell {
			return bt.StatusFailure
		}
	}
	temp := bb.Danger.WithBomb(bb.grid, bb.Self.Cell, bb.Config)
	if !canEscape(bb.grid, temp, bb.Self.Cell, bb.Snap.Time, bb.Config.StepInterval) {
		return bt.StatusFailure
	}
	return bt.StatusSuccess
}

func actMoveToTarget(bb *Blackboard) bt.Status {
	if bb.Target == nil {
		return bt.StatusFailure
	}
	if *bb.Target == bb.Self.Cell {
		return bt.StatusSuccess
	}
	step, ok := nextStepToward(bb.grid, bb.Self.Cell, *bb.Target)
	if !ok {
		return bt.StatusFailure
	}
	bb.NextInput = inputToward(bb.Self.Cell, step)
	return bt.StatusRunning
}

func actPlaceBomb(bb *Blackboard) bt.Status {
	if bb.Target == nil || *bb.Target != bb.Self.Cell {
		return bt.StatusFailure
	}
	bb.NextInput = core.Input{Bomb: true}
	bb.EscapeTo = nil
	return bt.StatusSuccess
}
