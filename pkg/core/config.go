package core

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// BombParams 炸弹参数
type BombParams struct {
	Range     int           `validate:"min=1,max=10"`
	Speed     float64       `validate:"gt=0"` // 格/秒，爆炸时取倒数作为每步间隔
	FadeDelay time.Duration `validate:"gte=0"`
	Fuse      time.Duration `validate:"gt=0"`
}

// Interval 冲击波每步的间隔
func (p BombParams) Interval() time.Duration {
	return time.Duration(float64(time.Second) / p.Speed)
}

// PlayerConfig 玩家参数
type PlayerConfig struct {
	MaxHealth       int           `validate:"min=1"`
	MaxBombs        int           `validate:"min=1"`
	StepsPerSecond  float64       `validate:"gt=0"`
	Invulnerability time.Duration `validate:"gte=0"`
}

// EnemyConfig 敌人参数
type EnemyConfig struct {
	Speed        float64       `validate:"gt=0"`
	LookDistance int           `validate:"min=0"`
	SpawnDelay   time.Duration `validate:"gte=0"`
}

// Config 模拟配置
type Config struct {
	Bounds  Bounds
	Bomb    BombParams
	Player  PlayerConfig
	Enemy   EnemyConfig
	FadeOut time.Duration `validate:"gt=0"`
	Seed    int64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Bounds: DefaultBounds,
		Bomb: BombParams{
			Range:     DefaultBombRange,
			Speed:     DefaultBombSpeed,
			FadeDelay: DefaultBombFadeDelay,
			Fuse:      DefaultBombFuse,
		},
		Player: PlayerConfig{
			MaxHealth:       DefaultPlayerHealth,
			MaxBombs:        DefaultPlayerMaxBombs,
			StepsPerSecond:  DefaultPlayerStepsPerSecond,
			Invulnerability: DefaultPlayerInvulnerability,
		},
		Enemy: EnemyConfig{
			Speed:        DefaultEnemySpeed,
			LookDistance: DefaultEnemyLookDistance,
			SpawnDelay:   DefaultEnemySpawnDelay,
		},
		FadeOut: DefaultFadeOut,
		Seed:    1,
	}
}

var validate = validator.New()

// Validate 校验配置
func (c Config) Validate() error {
	if !c.Bounds.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidBounds)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate 校验炸弹参数
func (p BombParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
