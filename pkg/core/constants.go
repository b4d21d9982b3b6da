package core

import "time"

// 模拟帧率
const (
	FPS            = 60
	FixedDeltaTime = time.Second / FPS
)

// 炸弹默认参数
const (
	DefaultBombRange     = 1                      // 爆炸范围（格子数）
	DefaultBombSpeed     = 10.0                   // 冲击波速度（格/秒）
	DefaultBombFadeDelay = 500 * time.Millisecond // 淡出延迟
	DefaultBombFuse      = 2 * time.Second        // 引信时长
	DefaultFadeOut       = 1 * time.Second        // 淡出时长
	MaxBombRange         = 10
)

// 玩家默认参数
const (
	DefaultPlayerHealth          = 5
	DefaultPlayerMaxBombs        = 3
	DefaultPlayerStepsPerSecond  = 8.0
	DefaultPlayerInvulnerability = 5 * time.Second
)

// 敌人默认参数
const (
	DefaultEnemySpeed        = 4.0 // 格/秒
	DefaultEnemyLookDistance = 5
	DefaultEnemySpawnDelay   = 2 * time.Second
	enemyDirectionRetries    = 10
)

// obstacleRemoveFactor 障碍被炸后延迟移除的系数（相对淡出时长）
const obstacleRemoveFactor = 1.1
