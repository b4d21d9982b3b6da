package client

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"bomberfox/pkg/ai"
	"bomberfox/pkg/core"
	"bomberfox/pkg/level"
)

// LocalGame 单机模式，直接驱动本地模拟
type LocalGame struct {
	cfg    core.Config
	layout *level.Layout
	log    logrus.FieldLogger

	game     *core.Game
	playerID int
	level    int

	botCount int
	botCfg   ai.Config
	bots     []*ai.Controller

	renderer Renderer
	keys     *keyTracker
	pressed  KeyState
}

// LocalOption 单机模式选项
type LocalOption func(*LocalGame)

// WithBots 占用其余出生点的机器人玩家
func WithBots(n int, cfg ai.Config) LocalOption {
	return func(g *LocalGame) {
		g.botCount = n
		g.botCfg = cfg
	}
}

// WithKeys 替换键盘输入，测试用
func WithKeys(pressed KeyState) LocalOption {
	return func(g *LocalGame) { g.pressed = pressed }
}

// NewLocalGame 创建单机游戏，layout 为空时随机生成关卡
func NewLocalGame(cfg core.Config, layout *level.Layout, log logrus.FieldLogger, opts ...LocalOption) (*LocalGame, error) {
	g := &LocalGame{
		cfg:     cfg,
		layout:  layout,
		log:     log,
		level:   1,
		pressed: ebiten.IsKeyPressed,
		botCfg:  ai.ConfigNormal,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.keys = newKeyTracker(g.pressed)
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *LocalGame) restart() error {
	cfg := g.cfg
	cfg.Seed = g.cfg.Seed + int64(g.level)
	game, starts, err := level.NewGame(cfg, g.layout, g.level, core.WithLogger(g.log))
	if err != nil {
		return fmt.Errorf("创建第 %d 关: %w", g.level, err)
	}
	p, err := game.AddPlayer(starts[0])
	if err != nil {
		return err
	}
	g.game = game
	g.playerID = p.ID
	g.renderer.LocalPlayer = p.ID

	g.bots = g.bots[:0]
	botCfg := ai.ConfigFor(g.botCfg, cfg)
	for i := 1; i <= g.botCount && i < len(starts); i++ {
		bp, err := game.AddPlayer(starts[i])
		if err != nil {
			return err
		}
		g.bots = append(g.bots, ai.NewController(bp.ID, botCfg, cfg.Seed))
	}
	g.log.WithFields(logrus.Fields{"level": g.level, "bots": len(g.bots)}).Info("关卡开始")
	return nil
}

// Game 当前模拟
func (g *LocalGame) Game() *core.Game { return g.game }

func (g *LocalGame) Update() error {
	if g.keys.JustPressed(ebiten.KeyP) {
		g.game.SetPaused(!g.game.Paused())
	}
	if g.keys.JustPressed(ebiten.KeyR) && g.game.Status() != core.StatusRunning {
		if g.game.Status() == core.StatusWon {
			g.level++
		}
		return g.restart()
	}

	g.step(ReadInput(g.pressed))
	return nil
}

// step 推进一帧模拟
func (g *LocalGame) step(in core.Input) {
	g.game.ApplyInput(g.playerID, in)
	if len(g.bots) > 0 {
		snap := g.game.Snapshot()
		for _, bot := range g.bots {
			g.game.ApplyInput(bot.PlayerID, bot.Decide(snap))
		}
	}
	g.game.Update(core.FixedDeltaTime)
}

// Bots 当前关卡的机器人数
func (g *LocalGame) Bots() int { return len(g.bots) }

func (g *LocalGame) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen, g.game.Snapshot())
}

func (g *LocalGame) Layout(_, _ int) (int, int) {
	return ScreenSize(g.game.World().Bounds())
}
