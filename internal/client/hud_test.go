package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bomberfox/pkg/core"
)

func TestHUDLine(t *testing.T) {
	snap := core.Snapshot{
		Level: 3,
		Players: []core.PlayerView{
			{ID: 1, Health: 2, MaxHealth: 3, CurrentBombs: 1, MaxBombs: 2},
			{ID: 2, Dead: true},
		},
	}
	assert.Equal(t, "LEVEL 3  HP 2/3  BOMBS 1/2  PLAYERS 2", hudLine(snap, 1))
	assert.Equal(t, "LEVEL 3  HP 0/0  BOMBS 0/0  DEAD  PLAYERS 2", hudLine(snap, 2))
	assert.Equal(t, "LEVEL 3  PLAYERS 2", hudLine(snap, 9))
}

func TestBanner(t *testing.T) {
	assert.Empty(t, banner(core.Snapshot{Status: core.StatusRunning}))
	assert.Equal(t, "PAUSED", banner(core.Snapshot{Paused: true}))
	assert.Equal(t, "LEVEL CLEAR", banner(core.Snapshot{Status: core.StatusWon, Paused: true}))
	assert.Equal(t, "GAME OVER", banner(core.Snapshot{Status: core.StatusLost}))
}
