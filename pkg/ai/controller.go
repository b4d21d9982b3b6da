// Package ai 机器人玩家：只读取快照，输出与键盘相同的输入
package ai

import (
	"math/rand"
	"time"

	"bomberfox/pkg/ai/bt"
	"bomberfox/pkg/core"
)

type Controller struct {
	PlayerID int
	rnd      *rand.Rand
	config   *Config

	lastThink   time.Duration
	lastCell    core.Cell
	lastBombs   int
	lastDanger  bool
	thought     bool
	cachedInput core.Input

	blackboard Blackboard
	tree       bt.Node[*Blackboard]
	danger     *DangerField
}

// NewController 创建机器人，相同种子产生相同决策
func NewController(playerID int, config Config, seed int64) *Controller {
	rnd := rand.New(rand.NewSource(seed + int64(playerID)))
	c := &Controller{
		PlayerID: playerID,
		rnd:      rnd,
		config:   &config,
		danger:   NewDangerField(),
		tree:     newBotTree(),
	}
	c.blackboard = Blackboard{RNG: rnd, Danger: c.danger, Config: c.config}
	return c
}

func newBotTree() bt.Node[*Blackboard] {
	return &bt.Selector[*Blackboard]{Children: []bt.Node[*Blackboard]{
		&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Condition[*Blackboard]{Check: condInDanger},
			&bt.Action[*Blackboard]{Do: actFindSafe},
			&bt.Action[*Blackboard]{Do: actMoveToSafe},
		}},
		&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Condition[*Blackboard]{Check: condSeesExit},
			&bt.Action[*Blackboard]{Do: actMoveToExit},
		}},
		&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Condition[*Blackboard]{Check: condHasBombCapacity},
			&bt.Action[*Blackboard]{Do: actFindTarget},
			&bt.Action[*Blackboard]{Do: actPreCheckEscape},
			&bt.Action[*Blackboard]{Do: actMoveToTarget},
			&bt.Action[*Blackboard]{Do: actPlaceBomb},
		}},
		&bt.Action[*Blackboard]{Do: actWander},
	}}
}

// Decide 根据快照决定本帧输入
func (c *Controller) Decide(snap core.Snapshot) core.Input {
	self, ok := findSelf(snap, c.PlayerID)
	if !ok || self.Dead || snap.Status != core.StatusRunning || snap.Paused {
		return core.Input{}
	}

	g := newGrid(snap)
	c.danger.Update(g, snap.Time, c.config)
	inDanger := c.danger.Threatened(self.Cell)

	force := !c.thought ||
		self.Cell != c.lastCell ||
		len(g.bombs) != c.lastBombs ||
		(inDanger && !c.lastDanger)
	c.lastCell = self.Cell
	c.lastBombs = len(g.bombs)
	c.lastDanger = inDanger

	if !force && snap.Time-c.lastThink < c.config.ThinkInterval {
		// 炸弹只按一次
		c.cachedInput.Bomb = false
		return c.cachedInput
	}
	c.thought = true
	c.lastThink = snap.Time

	c.blackboard.ResetFrame(snap, self, g)
	_ = c.tree.Tick(&c.blackboard)

	input := c.blackboard.NextInput
	if c.config.MistakeRate > 0 && c.rnd.Float64() < c.config.MistakeRate {
		switch c.rnd.Intn(2) {
		case 0:
			input = core.Input{}
		case 1:
			input = directionInput(core.CardinalDirections[c.rnd.Intn(len(core.CardinalDirections))])
		}
	}
	c.cachedInput = input
	return input
}

// Config 当前配置
func (c *Controller) Config() Config {
	return *c.config
}

func findSelf(snap core.Snapshot, id int) (core.PlayerView, bool) {
	for _, p := range snap.Players {
		if p.ID == id {
			return p, true
		}
	}
	return core.PlayerView{}, false
}
