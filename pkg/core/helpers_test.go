package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestGame 在默认边界上创建游戏，mutate 可修改配置
func newTestGame(t *testing.T, mutate func(*Config)) *Game {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	world, err := NewWorld(cfg.Bounds)
	require.NoError(t, err)
	g, err := NewGame(world, cfg)
	require.NoError(t, err)
	return g
}

// addOwner 在远离测试区域的角落放一个玩家作为炸弹所属者
func addOwner(t *testing.T, g *Game) *Player {
	t.Helper()
	p, err := g.AddPlayer(g.world.Bounds().Min)
	require.NoError(t, err)
	return p
}

func plant(t *testing.T, g *Game, owner *Player, cell Cell, rng int, speed float64) *Bomb {
	t.Helper()
	params := g.cfg.Bomb
	params.Range = rng
	params.Speed = speed
	b, err := g.PlantBomb(owner, cell, params)
	require.NoError(t, err)
	return b
}

// advance 按固定步长推进 d
func advance(g *Game, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += FixedDeltaTime {
		step := FixedDeltaTime
		if d-elapsed < step {
			step = d - elapsed
		}
		g.Update(step)
	}
}

// branchDistances 统计某方向上存活冲击波片段在各距离上的数量
func branchDistances(g *Game, origin Cell, dir Direction) map[int]int {
	out := make(map[int]int)
	for _, sw := range g.ShockWaves() {
		if sw.Origin == origin && sw.Direction == dir {
			out[sw.Distance]++
		}
	}
	return out
}

type recordedEffect struct {
	Effect Effect
	Target Handle
	Dir    Direction
}

// effectRecorder 记录副作用的 EffectHandler
type effectRecorder struct {
	calls []recordedEffect
}

func (r *effectRecorder) Detonate(h Handle) {
	r.calls = append(r.calls, recordedEffect{Effect: EffectDetonate, Target: h})
}

func (r *effectRecorder) Kill(h Handle) {
	r.calls = append(r.calls, recordedEffect{Effect: EffectKill, Target: h})
}

func (r *effectRecorder) BlowUp(h Handle, dir Direction) {
	r.calls = append(r.calls, recordedEffect{Effect: EffectBlowUp, Target: h, Dir: dir})
}

func (r *effectRecorder) Damage(h Handle) {
	r.calls = append(r.calls, recordedEffect{Effect: EffectDamage, Target: h})
}

func (r *effectRecorder) Collect(exit, _ Handle) {
	r.calls = append(r.calls, recordedEffect{Effect: EffectCollect, Target: exit})
}
