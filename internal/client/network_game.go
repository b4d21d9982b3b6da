package client

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"bomberfox/pkg/core"
)

// NetworkGame 联网模式：只发送输入，画面完全来自服务器快照
type NetworkGame struct {
	client   *NetworkClient
	log      logrus.FieldLogger
	renderer Renderer
	pressed  KeyState
	keys     *keyTracker

	bounds core.Bounds
	last   core.Input
}

// NewNetworkGame 创建联网游戏，client 需已完成 Connect
func NewNetworkGame(client *NetworkClient, log logrus.FieldLogger) *NetworkGame {
	return &NetworkGame{
		client:  client,
		log:     log,
		pressed: ebiten.IsKeyPressed,
		keys:    newKeyTracker(ebiten.IsKeyPressed),
		bounds:  core.DefaultBounds,
	}
}

func (g *NetworkGame) Update() error {
	if g.keys.JustPressed(ebiten.KeyEscape) {
		g.client.Leave()
		return ebiten.Termination
	}
	if !g.client.Connected() {
		return nil
	}

	in := ReadInput(g.pressed)
	// 服务器每帧清空输入队列，按住的键需要每帧发送
	if !in.IsZero() || in != g.last {
		if err := g.client.SendInput(in); err != nil {
			g.log.WithError(err).Debug("发送输入失败")
		}
	}
	g.last = in
	return nil
}

func (g *NetworkGame) Draw(screen *ebiten.Image) {
	_, snap, ok := g.client.State()
	if !ok {
		screen.Fill(color.Black)
		drawText(screen, 10, HUDHeight+10, "WAITING FOR SERVER...", colorHUDText)
		return
	}
	if snap.Bounds.Valid() {
		g.bounds = snap.Bounds
	}
	g.renderer.LocalPlayer = int(g.client.PlayerID())
	g.renderer.Draw(screen, snap)

	if !g.client.Connected() {
		drawOverlay(screen, "RECONNECTING...")
		return
	}
	if over, ok := g.client.GameOver(); ok && snap.Status != core.StatusRunning {
		msg := fmt.Sprintf("%s  LEVEL %d", over.Status, over.Level)
		if over.WinnerID > 0 {
			msg += fmt.Sprintf("  WINNER P%d", over.WinnerID)
		}
		drawText(screen, 6, screen.Bounds().Dy()-16, msg, colorBanner)
	}
}

func (g *NetworkGame) Layout(_, _ int) (int, int) {
	return ScreenSize(g.bounds)
}
