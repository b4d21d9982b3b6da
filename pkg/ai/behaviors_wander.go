package ai

import (
	"bomberfox/pkg/ai/bt"
	"bomberfox/pkg/core"
)

// 游荡时同一方向保持的步数
const wanderSteps = 4

func actWander(bb *Blackboard) bt.Status {
	if bb.RNG == nil {
		return bt.StatusFailure
	}

	pos := bb.Self.Cell
	if bb.WanderSteps > 0 && bb.WanderDir != core.DirNone && canWander(bb, pos.Add(bb.WanderDir)) {
		bb.WanderSteps--
		bb.NextInput = directionInput(bb.WanderDir)
		return bt.StatusRunning
	}

	var options []core.Direction
	for _, dir := range core.CardinalDirections {
		if canWander(bb, pos.Add(dir)) {
			options = append(options, dir)
		}
	}
	if len(options) == 0 {
		bb.WanderDir = core.DirNone
		bb.WanderSteps = 0
		return bt.StatusRunning
	}
	bb.WanderDir = options[bb.RNG.Intn(len(options))]
	bb.WanderSteps = wanderSteps
	bb.NextInput = directionInput(bb.WanderDir)
	return bt.StatusRunning
}

func canWander(bb *Blackboard, c core.Cell) bool {
	return bb.grid.walkable(c) && !bb.Danger.Threatened(c)
}
