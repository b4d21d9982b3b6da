package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorld_InvalidBounds(t *testing.T) {
	_, err := NewWorld(Bounds{Min: Cell{X: 1, Y: 0}, Max: Cell{X: 0, Y: 0}})
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestWorld_Spawn(t *testing.T) {
	w, err := NewWorld(DefaultBounds)
	require.NoError(t, err)

	t.Run("out of bounds", func(t *testing.T) {
		_, err := w.Spawn(CategoryBlock, Cell{X: 8, Y: 0}, Handle{})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("stale parent", func(t *testing.T) {
		parent, err := w.Spawn(CategoryBomb, Cell{}, Handle{})
		require.NoError(t, err)
		require.True(t, w.Destroy(parent))

		_, err = w.Spawn(CategoryExplosion, Cell{}, parent)
		assert.ErrorIs(t, err, ErrStaleHandle)
	})

	t.Run("reused slot invalidates old handle", func(t *testing.T) {
		old, err := w.Spawn(CategoryBlock, Cell{X: 1, Y: 1}, Handle{})
		require.NoError(t, err)
		require.True(t, w.Destroy(old))

		fresh, err := w.Spawn(CategoryBlock, Cell{X: 1, Y: 1}, Handle{})
		require.NoError(t, err)
		assert.NotEqual(t, old, fresh)
		assert.False(t, w.Alive(old))
		assert.True(t, w.Alive(fresh))
	})
}

func TestWorld_OccupantsAt(t *testing.T) {
	w, err := NewWorld(DefaultBounds)
	require.NoError(t, err)

	cell := Cell{X: 2, Y: 2}
	a, _ := w.Spawn(CategoryObstacle, cell, Handle{})
	b, _ := w.Spawn(CategoryExit, cell, Handle{})
	c, _ := w.Spawn(CategoryShockWave, cell, Handle{})

	occ := w.OccupantsAt(cell)
	require.Len(t, occ, 3)
	assert.Equal(t, []Handle{a, b, c}, []Handle{occ[0].Handle, occ[1].Handle, occ[2].Handle})

	w.SetCollidable(a, false)
	occ = w.OccupantsAt(cell)
	require.Len(t, occ, 2)
	assert.Equal(t, b, occ[0].Handle)

	require.NoError(t, w.Move(c, Cell{X: 3, Y: 2}))
	assert.Len(t, w.OccupantsAt(cell), 1)
	assert.Len(t, w.OccupantsAt(Cell{X: 3, Y: 2}), 1)
	assert.ErrorIs(t, w.Move(c, Cell{X: 30, Y: 2}), ErrOutOfBounds)
}

func TestWorld_DestroyCascades(t *testing.T) {
	w, err := NewWorld(DefaultBounds)
	require.NoError(t, err)

	var destroyed []Category
	w.OnDestroy(func(o Occupant) { destroyed = append(destroyed, o.Category) })

	root, _ := w.Spawn(CategoryExplosion, Cell{}, Handle{})
	mid, _ := w.Spawn(CategoryInitialShock, Cell{}, root)
	leaf, _ := w.Spawn(CategoryShockWave, Cell{X: 1}, mid)

	assert.True(t, w.Destroy(root))
	assert.False(t, w.Alive(mid))
	assert.False(t, w.Alive(leaf))
	assert.Equal(t, []Category{CategoryShockWave, CategoryInitialShock, CategoryExplosion}, destroyed)

	// 重复销毁是空操作
	assert.False(t, w.Destroy(root))
	assert.False(t, w.Destroy(leaf))
	assert.Len(t, destroyed, 3)
}

func TestWorld_RetireHandsChildrenToParent(t *testing.T) {
	w, err := NewWorld(DefaultBounds)
	require.NoError(t, err)

	root, _ := w.Spawn(CategoryInitialShock, Cell{}, Handle{})
	seed, _ := w.Spawn(CategoryShockWave, Cell{}, root)
	child, _ := w.Spawn(CategoryShockWave, Cell{X: 1}, seed)

	assert.True(t, w.Retire(seed))
	assert.False(t, w.Alive(seed))
	assert.True(t, w.Alive(child))
	assert.Equal(t, root, w.Parent(child))
	assert.Equal(t, []Handle{child}, w.Children(root))

	assert.True(t, w.Destroy(root))
	assert.False(t, w.Alive(child))
}

func TestWorld_Detach(t *testing.T) {
	w, err := NewWorld(DefaultBounds)
	require.NoError(t, err)

	bomb, _ := w.Spawn(CategoryBomb, Cell{}, Handle{})
	ex, _ := w.Spawn(CategoryExplosion, Cell{}, bomb)
	w.Detach(ex)

	assert.True(t, w.Parent(ex).IsZero())
	assert.True(t, w.Destroy(bomb))
	assert.True(t, w.Alive(ex))
	assert.Equal(t, 1, w.Count(CategoryExplosion))
	assert.Equal(t, 0, w.Count(CategoryBomb))
}
