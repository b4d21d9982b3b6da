package client

import (
	"github.com/hajimehoshi/ebiten/v2"

	"bomberfox/pkg/core"
)

// KeyState 查询按键是否按下，测试时可替换
type KeyState func(ebiten.Key) bool

// ReadInput 方向键或 WASD 移动，空格放炸弹
func ReadInput(pressed KeyState) core.Input {
	return core.Input{
		Up:    pressed(ebiten.KeyArrowUp) || pressed(ebiten.KeyW),
		Down:  pressed(ebiten.KeyArrowDown) || pressed(ebiten.KeyS),
		Left:  pressed(ebiten.KeyArrowLeft) || pressed(ebiten.KeyA),
		Right: pressed(ebiten.KeyArrowRight) || pressed(ebiten.KeyD),
		Bomb:  pressed(ebiten.KeySpace),
	}
}

// keyTracker 检测按键的按下沿
type keyTracker struct {
	pressed KeyState
	prev    map[ebiten.Key]bool
}

func newKeyTracker(pressed KeyState) *keyTracker {
	return &keyTracker{pressed: pressed, prev: make(map[ebiten.Key]bool)}
}

func (k *keyTracker) JustPressed(key ebiten.Key) bool {
	now := k.pressed(key)
	prev := k.prev[key]
	k.prev[key] = now
	return now && !prev
}
