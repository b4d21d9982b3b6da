package client

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"bomberfox/pkg/core"
)

var hudFont = text.NewGoXFace(basicfont.Face7x13)

var (
	colorHUD     = color.RGBA{20, 20, 20, 255}
	colorHUDText = color.RGBA{230, 230, 230, 255}
	colorBanner  = color.RGBA{255, 220, 80, 255}
	colorOverlay = color.RGBA{0, 0, 0, 140}
)

// hudLine 状态栏文字
func hudLine(snap core.Snapshot, localID int) string {
	line := fmt.Sprintf("LEVEL %d", snap.Level)
	for _, p := range snap.Players {
		if p.ID != localID {
			continue
		}
		line += fmt.Sprintf("  HP %d/%d  BOMBS %d/%d", p.Health, p.MaxHealth, p.MaxBombs-p.CurrentBombs, p.MaxBombs)
		if p.Dead {
			line += "  DEAD"
		}
	}
	line += fmt.Sprintf("  PLAYERS %d", len(snap.Players))
	return line
}

// banner 对局暂停或结束时的提示
func banner(snap core.Snapshot) string {
	switch {
	case snap.Status == core.StatusWon:
		return "LEVEL CLEAR"
	case snap.Status == core.StatusLost:
		return "GAME OVER"
	case snap.Paused:
		return "PAUSED"
	}
	return ""
}

func drawHUD(screen *ebiten.Image, snap core.Snapshot, localID int) {
	w := float32(screen.Bounds().Dx())
	vector.DrawFilledRect(screen, 0, 0, w, HUDHeight, colorHUD, false)
	drawText(screen, 6, 4, hudLine(snap, localID), colorHUDText)

	if msg := banner(snap); msg != "" {
		drawOverlay(screen, msg)
	}
}

func drawOverlay(screen *ebiten.Image, msg string) {
	b := screen.Bounds()
	vector.DrawFilledRect(screen, 0, HUDHeight, float32(b.Dx()), float32(b.Dy()-HUDHeight), colorOverlay, false)
	tw, _ := text.Measure(msg, hudFont, 0)
	drawText(screen, (b.Dx()-int(tw))/2, b.Dy()/2, msg, colorBanner)
}

func drawText(screen *ebiten.Image, x, y int, msg string, clr color.Color) {
	options := &text.DrawOptions{}
	options.GeoM.Translate(float64(x), float64(y))
	options.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, hudFont, options)
}
