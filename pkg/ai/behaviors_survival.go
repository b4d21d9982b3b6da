package ai

import (
	"bomberfox/pkg/ai/bt"
	"bomberfox/pkg/core"
)

func condInDanger(bb *Blackboard) bool {
	return bb.Danger.Threatened(bb.Self.Cell)
}

func actFindSafe(bb *Blackboard) bt.Status {
	if bb.EscapeTo != nil && !bb.Danger.Threatened(*bb.EscapeTo) {
		if _, ok := nextStepToward(bb.grid, bb.Self.Cell, *bb.EscapeTo); ok {
			return bt.StatusSuccess
		}
	}
	safe, ok := findNearest(bb.grid, bb.Self.Cell, func(c core.Cell) bool {
		return !bb.Danger.Threatened(c)
	})
	if !ok {
		bb.EscapeTo = nil
		return bt.StatusFailure
	}
	bb.EscapeTo = &safe
	return bt.StatusSuccess
}

func actMoveToSafe(bb *Blackboard) bt.Status {
	if bb.EscapeTo == nil {
		return bt.StatusFailure
	}
	step, ok := nextStepToward(bb.grid, bb.Self.Cell, *bb.EscapeTo)
	if !ok {
		bb.EscapeTo = nil
		return bt.StatusFailure
	}
	bb.NextInput = inputToward(bb.Self.Cell, step)
	return bt.StatusRunning
}
