package ai

import (
	"time"

	"bomberfox/pkg/core"
)

// Config 机器人的行为参数，决定它的强弱
type Config struct {
	// ThinkInterval 没有外部变化时重新思考的间隔
	ThinkInterval time.Duration

	// MistakeRate 随机失误率 (0.0-1.0)
	MistakeRate float64

	// PreferObstacles 优先炸障碍开路，否则优先追击敌人
	PreferObstacles bool

	// MaxActiveBombs 同时存在的炸弹上限，不超过玩家自身上限
	MaxActiveBombs int

	// 与模拟一致的炸弹和移动参数，用于预测爆炸
	BombRange    int
	Fuse         time.Duration
	StepInterval time.Duration
}

// 预设配置：普通难度
var ConfigNormal = Config{
	ThinkInterval:   500 * time.Millisecond,
	MistakeRate:     0.05,
	PreferObstacles: true,
	MaxActiveBombs:  1,
	BombRange:       core.DefaultBombRange,
	Fuse:            core.DefaultBombFuse,
	StepInterval:    time.Duration(float64(time.Second) / core.DefaultPlayerStepsPerSecond),
}

// 预设配置：困难难度
var ConfigHard = Config{
	ThinkInterval:   250 * time.Millisecond,
	MistakeRate:     0,
	PreferObstacles: false,
	MaxActiveBombs:  2,
	BombRange:       core.DefaultBombRange,
	Fuse:            core.DefaultBombFuse,
	StepInterval:    time.Duration(float64(time.Second) / core.DefaultPlayerStepsPerSecond),
}

// ConfigFor 按模拟配置修正炸弹和移动参数
func ConfigFor(base Config, sim core.Config) Config {
	base.BombRange = sim.Bomb.Range
	base.Fuse = sim.Bomb.Fuse
	base.StepInterval = time.Duration(float64(time.Second) / sim.Player.StepsPerSecond)
	return base
}
