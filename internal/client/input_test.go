package client

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"

	"bomberfox/pkg/core"
)

// keys 用一组按下的键模拟键盘
func keys(pressed ...ebiten.Key) KeyState {
	set := make(map[ebiten.Key]bool, len(pressed))
	for _, k := range pressed {
		set[k] = true
	}
	return func(k ebiten.Key) bool { return set[k] }
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name    string
		pressed []ebiten.Key
		want    core.Input
	}{
		{"无输入", nil, core.Input{}},
		{"方向键", []ebiten.Key{ebiten.KeyArrowUp}, core.Input{Up: true}},
		{"WASD", []ebiten.Key{ebiten.KeyA}, core.Input{Left: true}},
		{"放炸弹", []ebiten.Key{ebiten.KeySpace, ebiten.KeyD}, core.Input{Right: true, Bomb: true}},
		{"两套键混用", []ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, core.Input{Down: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadInput(keys(tt.pressed...)))
		})
	}
}

func TestKeyTracker_JustPressed(t *testing.T) {
	down := false
	k := newKeyTracker(func(key ebiten.Key) bool { return key == ebiten.KeyP && down })

	assert.False(t, k.JustPressed(ebiten.KeyP))
	down = true
	assert.True(t, k.JustPressed(ebiten.KeyP))
	assert.False(t, k.JustPressed(ebiten.KeyP), "按住不重复触发")
	down = false
	assert.False(t, k.JustPressed(ebiten.KeyP))
	down = true
	assert.True(t, k.JustPressed(ebiten.KeyP))
}
