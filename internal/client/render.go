package client

import (
	"image/color"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"bomberfox/pkg/core"
)

const (
	TileSize  = 32
	HUDHeight = 20
)

// ScreenSize 按竞技场大小计算逻辑画面尺寸
func ScreenSize(b core.Bounds) (int, int) {
	return b.Width() * TileSize, b.Height()*TileSize + HUDHeight
}

// CellToScreen 格子左上角的像素坐标，y 轴向上所以需要翻转
func CellToScreen(b core.Bounds, c core.Cell) (float32, float32) {
	x := (c.X - b.Min.X) * TileSize
	y := (b.Max.Y-c.Y)*TileSize + HUDHeight
	return float32(x), float32(y)
}

var (
	colorGrass     = color.RGBA{34, 139, 34, 255}
	colorGrid      = color.RGBA{0, 0, 0, 40}
	colorBlock     = color.RGBA{80, 80, 80, 255}
	colorBlockLine = color.RGBA{60, 60, 60, 255}
	colorObstacle  = color.RGBA{205, 133, 63, 255}
	colorBrickLine = color.RGBA{180, 118, 53, 255}
	colorBomb      = color.RGBA{0, 0, 0, 255}
	colorFuse      = color.RGBA{139, 69, 19, 255}
	colorEnemy     = color.RGBA{128, 0, 128, 255}
	colorShock     = color.RGBA{255, 140, 0, 255}
	colorExplosion = color.RGBA{255, 230, 0, 255}
	colorExit      = color.RGBA{0, 220, 255, 255}
	colorDead      = color.RGBA{110, 110, 110, 255}
)

// playerColors 按玩家 ID 区分颜色
var playerColors = []color.RGBA{
	{255, 255, 255, 255},
	{30, 30, 30, 255},
	{220, 40, 40, 255},
	{40, 90, 220, 255},
}

// drawOrder 越大越靠上
func drawOrder(c core.Category) int {
	switch c {
	case core.CategoryExit:
		return 0
	case core.CategoryBlock, core.CategoryObstacle:
		return 1
	case core.CategoryShockWave, core.CategoryExplosion:
		return 2
	case core.CategoryBomb:
		return 3
	case core.CategoryEnemy:
		return 4
	}
	return 5
}

// sortedEntities 按绘制层级排好序的实体，同层保持快照顺序
func sortedEntities(snap core.Snapshot) []core.OccupantView {
	out := append([]core.OccupantView(nil), snap.Entities...)
	sort.SliceStable(out, func(i, j int) bool {
		return drawOrder(out[i].Category) < drawOrder(out[j].Category)
	})
	return out
}

// Renderer 把快照画到屏幕上，本地与联网模式共用
type Renderer struct {
	LocalPlayer int
}

func (r *Renderer) Draw(screen *ebiten.Image, snap core.Snapshot) {
	screen.Fill(color.Black)
	b := snap.Bounds
	if !b.Valid() {
		return
	}

	for _, c := range b.Cells() {
		x, y := CellToScreen(b, c)
		vector.DrawFilledRect(screen, x, y, TileSize, TileSize, colorGrass, false)
		vector.StrokeRect(screen, x, y, TileSize, TileSize, 1, colorGrid, false)
	}

	for _, e := range sortedEntities(snap) {
		x, y := CellToScreen(b, e.Cell)
		drawEntity(screen, e, x, y)
	}

	for _, p := range snap.Players {
		x, y := CellToScreen(b, p.Cell)
		r.drawPlayer(screen, p, snap.Time, x, y)
	}

	drawHUD(screen, snap, r.LocalPlayer)
}

func drawEntity(screen *ebiten.Image, e core.OccupantView, x, y float32) {
	const half = TileSize / 2
	switch e.Category {
	case core.CategoryBlock:
		vector.DrawFilledRect(screen, x, y, TileSize, TileSize, colorBlock, false)
		vector.StrokeLine(screen, x+half, y+5, x+half, y+TileSize-5, 2, colorBlockLine, false)
		vector.StrokeLine(screen, x+5, y+half, x+TileSize-5, y+half, 2, colorBlockLine, false)

	case core.CategoryObstacle:
		c := colorObstacle
		if e.Fading {
			c = fade(c, 0.4)
			// 被炸开的障碍沿冲击方向偏移
			x += float32(e.Dir.DX) * 4
			y -= float32(e.Dir.DY) * 4
		}
		vector.DrawFilledRect(screen, x+1, y+1, TileSize-2, TileSize-2, c, false)
		for i := 0; i < 3; i++ {
			ly := y + float32(i*10+5)
			vector.StrokeLine(screen, x+2, ly, x+TileSize-2, ly, 1, colorBrickLine, false)
		}

	case core.CategoryBomb:
		vector.DrawFilledCircle(screen, x+half, y+half+2, 12, colorBomb, false)
		vector.StrokeLine(screen, x+half, y+half-10, x+half+5, y+4, 2, colorFuse, false)

	case core.CategoryEnemy:
		vector.DrawFilledCircle(screen, x+half, y+half, 12, colorEnemy, false)
		vector.DrawFilledCircle(screen, x+half-4, y+half-3, 2, color.White, false)
		vector.DrawFilledCircle(screen, x+half+4, y+half-3, 2, color.White, false)

	case core.CategoryShockWave, core.CategoryExplosion:
		c := colorShock
		if e.Category == core.CategoryExplosion {
			c = colorExplosion
		}
		if e.Fading {
			c = fade(c, 0.35)
		}
		inset := float32(4)
		if e.Category == core.CategoryShockWave && e.Distance > 0 {
			inset = 6
		}
		vector.DrawFilledRect(screen, x+inset, y+inset, TileSize-2*inset, TileSize-2*inset, c, false)

	case core.CategoryExit:
		vector.StrokeRect(screen, x+6, y+6, TileSize-12, TileSize-12, 3, colorExit, false)
	}
}

func (r *Renderer) drawPlayer(screen *ebiten.Image, p core.PlayerView, now time.Duration, x, y float32) {
	const half = TileSize / 2
	// 无敌时闪烁
	if p.Invulnerable && !p.Dead && (now/(100*time.Millisecond))%2 == 1 {
		return
	}
	c := playerColors[(p.ID-1+len(playerColors))%len(playerColors)]
	if p.Dead {
		c = colorDead
	}
	vector.DrawFilledCircle(screen, x+half, y+half, 11, c, false)
	if p.ID == r.LocalPlayer {
		vector.StrokeCircle(screen, x+half, y+half, 13, 2, colorExit, false)
	}
	// 朝向
	fx := x + half + float32(p.Facing.DX)*8
	fy := y + half - float32(p.Facing.DY)*8
	vector.DrawFilledCircle(screen, fx, fy, 3, colorBomb, false)
}

func fade(c color.RGBA, k float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: uint8(float64(c.A) * k),
	}
}
