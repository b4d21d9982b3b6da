package ai

import (
	"math/rand"

	"bomberfox/pkg/core"
)

type Blackboard struct {
	Snap   core.Snapshot
	Self   core.PlayerView
	RNG    *rand.Rand
	Danger *DangerField
	Config *Config

	grid *grid

	Target    *core.Cell
	EscapeTo  *core.Cell
	NextInput core.Input

	// 游荡方向，保持若干步以减少抖动
	WanderDir   core.Direction
	WanderSteps int
}

// ResetFrame EscapeTo 与游荡状态跨帧保留
func (bb *Blackboard) ResetFrame(snap core.Snapshot, self core.PlayerView, g *grid) {
	bb.Snap = snap
	bb.Self = self
	bb.grid = g
	bb.Target = nil
	bb.NextInput = core.Input{}
}
