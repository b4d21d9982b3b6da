package core

import "fmt"

// Cell 格子坐标，x 轴向右，y 轴向上
type Cell struct {
	X, Y int
}

// Add 沿方向移动一格
func (c Cell) Add(d Direction) Cell {
	return Cell{X: c.X + d.DX, Y: c.Y + d.DY}
}

// Step 沿方向移动 n 格
func (c Cell) Step(d Direction, n int) Cell {
	return Cell{X: c.X + d.DX*n, Y: c.Y + d.DY*n}
}

// Distance 曼哈顿距离
func (c Cell) Distance(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction 单位方向向量
type Direction struct {
	DX, DY int
}

var (
	DirNone  = Direction{}
	DirUp    = Direction{DX: 0, DY: 1}
	DirRight = Direction{DX: 1, DY: 0}
	DirDown  = Direction{DX: 0, DY: -1}
	DirLeft  = Direction{DX: -1, DY: 0}
)

// CardinalDirections 冲击波分支的固定顺序：上、右、下、左
var CardinalDirections = [4]Direction{DirUp, DirRight, DirDown, DirLeft}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirNone:
		return "none"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}

// Toward 返回从 from 指向 to 的单位方向（仅同行或同列时有效）
func Toward(from, to Cell) Direction {
	switch {
	case from.X == to.X && to.Y > from.Y:
		return DirUp
	case from.X == to.X && to.Y < from.Y:
		return DirDown
	case from.Y == to.Y && to.X > from.X:
		return DirRight
	case from.Y == to.Y && to.X < from.X:
		return DirLeft
	}
	return DirNone
}

// Bounds 竞技场边界（闭区间）
type Bounds struct {
	Min, Max Cell
}

// DefaultBounds 默认竞技场：-7..7 x -4..4
var DefaultBounds = Bounds{
	Min: Cell{X: -7, Y: -4},
	Max: Cell{X: 7, Y: 4},
}

// Valid 检查边界是否合法
func (b Bounds) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y
}

// Contains 检查格子是否在边界内
func (b Bounds) Contains(c Cell) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X && c.Y >= b.Min.Y && c.Y <= b.Max.Y
}

func (b Bounds) Width() int  { return b.Max.X - b.Min.X + 1 }
func (b Bounds) Height() int { return b.Max.Y - b.Min.Y + 1 }

// Cells 按行（自下而上）、列（自左而右）列出所有格子
func (b Bounds) Cells() []Cell {
	if !b.Valid() {
		return nil
	}
	cells := make([]Cell, 0, b.Width()*b.Height())
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	return cells
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
