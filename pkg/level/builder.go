// Package level 关卡布局：随机生成或从文本模板加载，再摆放到游戏中
package level

import (
	"errors"
	"fmt"
	"math/rand"

	"bomberfox/pkg/core"
)

// Layout 一个关卡的初始布局
type Layout struct {
	Bounds    core.Bounds
	Blocks    []core.Cell
	Obstacles []core.Cell
	Key       core.Cell // 藏有出口的障碍，HasKey 为假时无效
	HasKey    bool
	Enemies   []core.Cell
	Starts    []core.Cell // 玩家出生点
}

var ErrNoStarts = errors.New("关卡没有出生点")

// 生成参数
const (
	DefaultBlockChance    = 50 // 随机方块概率（百分比）
	DefaultObstacleChance = 75 // 障碍概率（百分比）
	MaxEnemies            = 6
	enemyStartDistance    = 4 // 敌人与出生点的最小曼哈顿距离
)

// DefaultStarts 默认出生点：四个角
var DefaultStarts = []core.Cell{
	{X: -7, Y: 4},
	{X: 7, Y: -4},
	{X: -7, Y: -4},
	{X: 7, Y: 4},
}

// surrounding 周围 8 个方向
var surrounding = []core.Direction{
	{DX: 0, DY: 1}, {DX: 1, DY: 1}, {DX: 1, DY: 0}, {DX: 1, DY: -1},
	{DX: 0, DY: -1}, {DX: -1, DY: -1}, {DX: -1, DY: 0}, {DX: -1, DY: 1},
}

// Builder 关卡生成器，相同种子生成相同布局
type Builder struct {
	Bounds         core.Bounds
	Starts         []core.Cell
	BlockChance    int
	ObstacleChance int

	rng    *rand.Rand
	free   map[core.Cell]bool
	order  []core.Cell // 空闲格子遍历顺序，保证确定性
	blocks map[core.Cell]bool
	layout *Layout
}

// NewBuilder 创建生成器
func NewBuilder(bounds core.Bounds, seed int64) *Builder {
	return &Builder{
		Bounds:         bounds,
		Starts:         DefaultStarts,
		BlockChance:    DefaultBlockChance,
		ObstacleChance: DefaultObstacleChance,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// EnemiesForLevel 关卡的敌人数量
func EnemiesForLevel(level int) int {
	n := level + 1
	if n > MaxEnemies {
		n = MaxEnemies
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Build 生成第 level 关的布局
func (b *Builder) Build(level int) (*Layout, error) {
	if !b.Bounds.Valid() {
		return nil, fmt.Errorf("生成关卡: %w", core.ErrInvalidBounds)
	}
	for _, s := range b.Starts {
		if !b.Bounds.Contains(s) {
			return nil, fmt.Errorf("出生点 %v: %w", s, core.ErrOutOfBounds)
		}
	}

	b.layout = &Layout{Bounds: b.Bounds, Starts: append([]core.Cell(nil), b.Starts...)}
	b.free = make(map[core.Cell]bool)
	b.blocks = make(map[core.Cell]bool)
	b.order = b.Bounds.Cells()
	for _, c := range b.order {
		b.free[c] = true
	}

	b.reserveStarts()
	b.createNormalBlocks()
	b.createRandomBlocks()
	b.removeDeadEnds()
	b.createEnemies(EnemiesForLevel(level))
	b.createObstacles()
	b.createKeyObstacle()

	for _, c := range b.order {
		if b.blocks[c] {
			b.layout.Blocks = append(b.layout.Blocks, c)
		}
	}
	return b.layout, nil
}

func (b *Builder) freeCells() []core.Cell {
	var out []core.Cell
	for _, c := range b.order {
		if b.free[c] {
			out = append(out, c)
		}
	}
	return out
}

// reserveStarts 出生点及其四邻保持空闲
func (b *Builder) reserveStarts() {
	for _, s := range b.Starts {
		delete(b.free, s)
		for _, dir := range core.CardinalDirections {
			delete(b.free, s.Add(dir))
		}
	}
}

// createNormalBlocks 固定图案的方块
func (b *Builder) createNormalBlocks() {
	for _, c := range b.freeCells() {
		if (c.X%2 == 0 && abs(c.Y) == 3) || (abs(c.Y) == 1 && abs(c.X) == 6) {
			b.placeBlock(c)
		}
	}
}

// createRandomBlocks 随机方块，周围 8 格中超过 2 格被占时不放
func (b *Builder) createRandomBlocks() {
	for _, c := range b.freeCells() {
		if b.rng.Intn(101) < b.BlockChance && b.notSurrounded(c) {
			b.placeBlock(c)
		}
	}
}

func (b *Builder) notSurrounded(c core.Cell) bool {
	taken := 0
	for _, dir := range surrounding {
		if !b.free[c.Add(dir)] {
			taken++
		}
		if taken > 2 {
			return false
		}
	}
	return true
}

// removeDeadEnds 四面都是方块的格子随机拆掉一面
func (b *Builder) removeDeadEnds() {
	for _, c := range b.order {
		if !b.deadEnd(c) {
			continue
		}
		dir := core.CardinalDirections[b.rng.Intn(len(core.CardinalDirections))]
		n := c.Add(dir)
		delete(b.blocks, n)
		b.free[n] = true
	}
}

func (b *Builder) deadEnd(c core.Cell) bool {
	for _, dir := range core.CardinalDirections {
		if !b.blocks[c.Add(dir)] {
			return false
		}
	}
	return true
}

// createEnemies 敌人放在远离出生点的空闲格子
func (b *Builder) createEnemies(n int) {
	var candidates []core.Cell
	for _, c := range b.freeCells() {
		if b.farFromStarts(c) {
			candidates = append(candidates, c)
		}
	}
	b.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, c := range candidates[:n] {
		delete(b.free, c)
		b.layout.Enemies = append(b.layout.Enemies, c)
	}
}

func (b *Builder) farFromStarts(c core.Cell) bool {
	for _, s := range b.Starts {
		if c.Distance(s) < enemyStartDistance {
			return false
		}
	}
	return true
}

func (b *Builder) createObstacles() {
	for _, c := range b.freeCells() {
		if b.rng.Intn(101) < b.ObstacleChance {
			delete(b.free, c)
			b.layout.Obstacles = append(b.layout.Obstacles, c)
		}
	}
}

func (b *Builder) createKeyObstacle() {
	if len(b.layout.Obstacles) == 0 {
		return
	}
	b.layout.Key = b.layout.Obstacles[b.rng.Intn(len(b.layout.Obstacles))]
	b.layout.HasKey = true
}

func (b *Builder) placeBlock(c core.Cell) {
	delete(b.free, c)
	b.blocks[c] = true
}

// Apply 把布局摆放到游戏中（不含玩家），返回出生点
func Apply(g *core.Game, l *Layout) ([]core.Cell, error) {
	for _, c := range l.Blocks {
		if _, err := g.AddBlock(c); err != nil {
			return nil, fmt.Errorf("摆放方块: %w", err)
		}
	}
	for _, c := range l.Obstacles {
		if _, err := g.AddObstacle(c, l.HasKey && c == l.Key); err != nil {
			return nil, fmt.Errorf("摆放障碍: %w", err)
		}
	}
	for _, c := range l.Enemies {
		if _, err := g.AddEnemy(c); err != nil {
			return nil, fmt.Errorf("摆放敌人: %w", err)
		}
	}
	return append([]core.Cell(nil), l.Starts...), nil
}

// NewGame 按布局创建一局游戏，layout 为空时用 cfg.Seed 随机生成第 lvl 关
func NewGame(cfg core.Config, layout *Layout, lvl int, opts ...core.Option) (*core.Game, []core.Cell, error) {
	if layout != nil {
		cfg.Bounds = layout.Bounds
	} else {
		var err error
		layout, err = NewBuilder(cfg.Bounds, cfg.Seed).Build(lvl)
		if err != nil {
			return nil, nil, err
		}
	}

	world, err := core.NewWorld(cfg.Bounds)
	if err != nil {
		return nil, nil, fmt.Errorf("创建竞技场: %w", err)
	}
	g, err := core.NewGame(world, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	g.SetLevel(lvl)
	starts, err := Apply(g, layout)
	if err != nil {
		return nil, nil, err
	}
	if len(starts) == 0 {
		return nil, nil, ErrNoStarts
	}
	return g, starts, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
