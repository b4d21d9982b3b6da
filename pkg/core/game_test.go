package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame_Errors(t *testing.T) {
	_, err := NewGame(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	w, _ := NewWorld(DefaultBounds)
	cfg := DefaultConfig()
	cfg.FadeOut = 0
	_, err = NewGame(w, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"range zero", func(c *Config) { c.Bomb.Range = 0 }, false},
		{"range too large", func(c *Config) { c.Bomb.Range = MaxBombRange + 1 }, false},
		{"speed zero", func(c *Config) { c.Bomb.Speed = 0 }, false},
		{"negative fade delay", func(c *Config) { c.Bomb.FadeDelay = -time.Second }, false},
		{"no bombs", func(c *Config) { c.Player.MaxBombs = 0 }, false},
		{"inverted bounds", func(c *Config) { c.Bounds = Bounds{Min: Cell{X: 1}, Max: Cell{}} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestBombParams_Interval(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, BombParams{Speed: 10}.Interval())
	assert.Equal(t, 500*time.Millisecond, BombParams{Speed: 2}.Interval())
}

func TestGame_CollectExitWins(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{X: 3})
	require.NoError(t, err)
	owner := addOwner(t, g)
	_, err = g.AddObstacle(Cell{X: 2}, true)
	require.NoError(t, err)

	var kinds []EventKind
	g.OnEvent(func(ev Event) { kinds = append(kinds, ev.Kind) })

	b := plant(t, g, owner, Cell{X: 1}, 1, DefaultBombSpeed)
	require.True(t, b.Explode(g))
	g.Update(3 * time.Second)
	require.Equal(t, 1, g.world.Count(CategoryExit))

	assert.False(t, g.ApplyInput(p.ID, Input{Left: true}))
	assert.Equal(t, Cell{X: 2}, p.Cell)
	assert.True(t, p.Collected)
	assert.Zero(t, g.world.Count(CategoryExit))

	g.Update(FixedDeltaTime)
	assert.Equal(t, StatusWon, g.Status())
	assert.Contains(t, kinds, EventExitRevealed)
	assert.Contains(t, kinds, EventExitCollected)

	// 对局结束后不再接受输入
	assert.False(t, g.ApplyInput(p.ID, Input{Bomb: true}))
}

func TestGame_AllPlayersDeadLoses(t *testing.T) {
	g := newTestGame(t, func(c *Config) { c.Player.MaxHealth = 1 })
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	require.True(t, p.Damage(g, 1))
	g.Update(FixedDeltaTime)
	assert.Equal(t, StatusLost, g.Status())
}

func TestGame_Pause(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	g.SetPaused(true)
	g.Update(time.Second)
	assert.Zero(t, g.Now())
	assert.False(t, g.ApplyInput(p.ID, Input{Right: true}))
	assert.Equal(t, Cell{}, p.Cell)

	g.SetPaused(false)
	g.Update(time.Second)
	assert.Equal(t, time.Second, g.Now())
}

func TestGame_ApplyInput(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{})
	require.NoError(t, err)

	assert.True(t, g.ApplyInput(p.ID, Input{Bomb: true}))
	assert.Equal(t, 1, p.CurrentBombs)
	assert.False(t, g.ApplyInput(p.ID+1, Input{Bomb: true}))

	// 移动先于放置：离开原格后在新格放炸弹
	g.Update(p.StepInterval)
	assert.True(t, g.ApplyInput(p.ID, Input{Up: true, Bomb: true}))
	assert.Equal(t, Cell{Y: 1}, p.Cell)
	assert.Equal(t, 2, p.CurrentBombs)
}

func TestInput_Direction(t *testing.T) {
	tests := []struct {
		in   Input
		want Direction
	}{
		{Input{}, DirNone},
		{Input{Up: true}, DirUp},
		{Input{Up: true, Down: true}, DirNone},
		{Input{Up: true, Left: true}, DirUp},
		{Input{Left: true, Right: true}, DirNone},
		{Input{Right: true}, DirRight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Direction(), "%+v", tt.in)
	}
	assert.True(t, Input{}.IsZero())
}

func TestGame_Snapshot(t *testing.T) {
	g := newTestGame(t, nil)
	p, err := g.AddPlayer(Cell{X: -5})
	require.NoError(t, err)
	_, err = g.AddBlock(Cell{X: 5})
	require.NoError(t, err)
	b := plant(t, g, p, Cell{}, 1, DefaultBombSpeed)
	require.True(t, b.Explode(g))
	g.Update(150 * time.Millisecond)

	snap := g.Snapshot()
	assert.Equal(t, 150*time.Millisecond, snap.Time)
	assert.Equal(t, StatusRunning, snap.Status)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, Cell{X: -5}, snap.Players[0].Cell)
	assert.Equal(t, DefaultPlayerHealth, snap.Players[0].Health)

	counts := make(map[Category]int)
	for _, e := range snap.Entities {
		counts[e.Category]++
	}
	assert.Equal(t, 1, counts[CategoryBlock])
	assert.Equal(t, 1, counts[CategoryExplosion])
	assert.Equal(t, 8, counts[CategoryShockWave])
	assert.Zero(t, counts[CategoryInitialShock])
	assert.Zero(t, counts[CategoryPlayer])
}

func TestHandle_ID(t *testing.T) {
	w, _ := NewWorld(DefaultBounds)
	a, _ := w.Spawn(CategoryBlock, Cell{}, Handle{})
	b, _ := w.Spawn(CategoryBlock, Cell{X: 1}, Handle{})
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotZero(t, a.ID())
}
