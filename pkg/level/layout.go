package level

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"bomberfox/pkg/core"
)

// 布局模板字符：W=方块 B=障碍 K=藏有出口的障碍 E=敌人 P=出生点 .=空地
const (
	tileEmpty    = '.'
	tileBlock    = 'W'
	tileObstacle = 'B'
	tileKey      = 'K'
	tileEnemy    = 'E'
	tileStart    = 'P'
)

var (
	ErrEmptyLayout  = errors.New("布局为空")
	ErrRaggedLayout = errors.New("布局各行长度不一致")
	ErrUnknownTile  = errors.New("未知的布局字符")
	ErrMultipleKeys = errors.New("布局中只能有一个出口")
)

// Parse 解析文本模板，第一行为最上方（y 最大），竞技场以原点为中心
func Parse(r io.Reader) (*Layout, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取布局: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyLayout
	}

	width, height := len(rows[0]), len(rows)
	lo := core.Cell{X: -(width / 2), Y: -(height / 2)}
	l := &Layout{Bounds: core.Bounds{
		Min: lo,
		Max: core.Cell{X: lo.X + width - 1, Y: lo.Y + height - 1},
	}}

	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("第 %d 行: %w", i+1, ErrRaggedLayout)
		}
		y := l.Bounds.Max.Y - i
		for j := 0; j < width; j++ {
			c := core.Cell{X: lo.X + j, Y: y}
			switch row[j] {
			case tileEmpty:
			case tileBlock:
				l.Blocks = append(l.Blocks, c)
			case tileObstacle:
				l.Obstacles = append(l.Obstacles, c)
			case tileKey:
				if l.HasKey {
					return nil, fmt.Errorf("第 %d 行: %w", i+1, ErrMultipleKeys)
				}
				l.Obstacles = append(l.Obstacles, c)
				l.Key, l.HasKey = c, true
			case tileEnemy:
				l.Enemies = append(l.Enemies, c)
			case tileStart:
				l.Starts = append(l.Starts, c)
			default:
				return nil, fmt.Errorf("第 %d 行第 %d 列 %q: %w", i+1, j+1, row[j], ErrUnknownTile)
			}
		}
	}
	return l, nil
}

// Format 把布局写成文本模板
func Format(l *Layout) string {
	tiles := make(map[core.Cell]byte)
	for _, c := range l.Blocks {
		tiles[c] = tileBlock
	}
	for _, c := range l.Obstacles {
		tiles[c] = tileObstacle
	}
	if l.HasKey {
		tiles[l.Key] = tileKey
	}
	for _, c := range l.Enemies {
		tiles[c] = tileEnemy
	}
	for _, c := range l.Starts {
		tiles[c] = tileStart
	}

	var buf bytes.Buffer
	for y := l.Bounds.Max.Y; y >= l.Bounds.Min.Y; y-- {
		for x := l.Bounds.Min.X; x <= l.Bounds.Max.X; x++ {
			t, ok := tiles[core.Cell{X: x, Y: y}]
			if !ok {
				t = tileEmpty
			}
			buf.WriteByte(t)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Load 从文件系统读取布局
func Load(fs afero.Fs, path string) (*Layout, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开布局 %s: %w", path, err)
	}
	defer f.Close()

	l, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析布局 %s: %w", path, err)
	}
	return l, nil
}

// Save 把布局写入文件系统
func Save(fs afero.Fs, path string, l *Layout) error {
	if err := afero.WriteFile(fs, path, []byte(Format(l)), 0o644); err != nil {
		return fmt.Errorf("写入布局 %s: %w", path, err)
	}
	return nil
}
