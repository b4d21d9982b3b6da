package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_MoveCooldown(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)

	assert.True(t, p.Move(g, DirRight))
	assert.Equal(t, Cell{X: 1}, p.Cell)
	assert.False(t, p.Move(g, DirRight), "仍在冷却中")

	g.Update(p.StepInterval)
	assert.True(t, p.Move(g, DirUp))
	assert.Equal(t, Cell{X: 1, Y: 1}, p.Cell)
	assert.Equal(t, DirUp, p.Facing)
}

func TestPlayer_MoveBlocked(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{X: 7})
	require.NoError(t, err)
	_, err = g.AddBlock(Cell{X: 6})
	require.NoError(t, err)
	_, err = g.AddObstacle(Cell{X: 7, Y: 1}, false)
	require.NoError(t, err)

	assert.False(t, p.Move(g, DirRight), "越界")
	assert.False(t, p.Move(g, DirLeft), "方块")
	assert.False(t, p.Move(g, DirUp), "障碍")
	assert.Equal(t, Cell{X: 7}, p.Cell)
	assert.Equal(t, DirUp, p.Facing)

	assert.True(t, p.Move(g, DirDown))
}

func TestPlayer_PlaceBomb(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	b := p.PlaceBomb(g)
	require.NotNil(t, b)
	assert.Same(t, p, b.Owner)
	assert.Equal(t, 1, p.CurrentBombs)

	assert.Nil(t, p.PlaceBomb(g), "同一格子已有炸弹")

	// 离开后不能再走回炸弹所在格
	require.True(t, p.Move(g, DirRight))
	g.Update(p.StepInterval)
	assert.False(t, p.Move(g, DirLeft))
}

func TestPlayer_MaxBombs(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{X: -3})
	require.NoError(t, err)

	for i := 0; i < DefaultPlayerMaxBombs; i++ {
		require.NotNil(t, p.PlaceBomb(g), "bomb %d", i+1)
		require.True(t, p.Move(g, DirRight))
		g.Update(p.StepInterval)
	}
	assert.Equal(t, DefaultPlayerMaxBombs, p.CurrentBombs)
	assert.Nil(t, p.PlaceBomb(g))
}

func TestPlayer_DamageAndInvulnerability(t *testing.T) {
	g := newTestGame(t, func(c *Config) {
		c.Player.MaxHealth = 2
	})
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	var died int
	g.OnEvent(func(ev Event) {
		if ev.Kind == EventPlayerDied {
			died++
		}
	})

	assert.True(t, p.Damage(g, 1))
	assert.Equal(t, 1, p.Health.Value())
	assert.False(t, p.Damage(g, 1), "无敌时间内")

	g.Update(p.Invulnerability)
	assert.True(t, p.Damage(g, 1))
	assert.True(t, p.Dead)
	assert.False(t, g.world.Collidable(p.Handle))
	assert.Equal(t, 1, died)
	assert.False(t, p.Move(g, DirUp))
	assert.Nil(t, p.PlaceBomb(g))
}

func TestPlayer_WalkIntoShockWave(t *testing.T) {
	g := newTestGame(t, nil)
	owner := addOwner(t, g)
	p, err := g.AddPlayer(Cell{X: 3})
	require.NoError(t, err)

	b := plant(t, g, owner, Cell{}, 2, DefaultBombSpeed)
	require.True(t, b.Explode(g))
	g.Update(250 * time.Millisecond)
	require.NotEmpty(t, g.ShockWavesAt(Cell{X: 2}))

	assert.True(t, p.Move(g, DirLeft))
	assert.Equal(t, DefaultPlayerHealth-1, p.Health.Value())
}

func TestHealth_Heal(t *testing.T) {
	h := NewHealth(3)
	h.Damage(2)
	assert.Equal(t, 1, h.Value())
	h.Heal(5)
	assert.Equal(t, 3, h.Value())
	assert.Equal(t, 3, h.Max())
}

func TestGame_RemovePlayer(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	assert.True(t, g.RemovePlayer(p.ID))
	assert.False(t, g.world.Alive(p.Handle))
	assert.False(t, g.RemovePlayer(p.ID))
	_, ok := g.Player(p.ID)
	assert.False(t, ok)
}
