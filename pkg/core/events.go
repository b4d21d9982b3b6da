package core

import "time"

// EventKind 游戏事件类型
type EventKind int

const (
	EventBombPlaced EventKind = iota
	EventBombExploded
	EventObstacleDestroyed
	EventExitRevealed
	EventExitCollected
	EventEnemyKilled
	EventPlayerDamaged
	EventPlayerDied
)

func (k EventKind) String() string {
	switch k {
	case EventBombPlaced:
		return "bomb_placed"
	case EventBombExploded:
		return "bomb_exploded"
	case EventObstacleDestroyed:
		return "obstacle_destroyed"
	case EventExitRevealed:
		return "exit_revealed"
	case EventExitCollected:
		return "exit_collected"
	case EventEnemyKilled:
		return "enemy_killed"
	case EventPlayerDamaged:
		return "player_damaged"
	case EventPlayerDied:
		return "player_died"
	}
	return "unknown"
}

// Event 游戏事件，供日志和网络层观察
type Event struct {
	Kind     EventKind
	Time     time.Duration
	Cell     Cell
	Handle   Handle
	PlayerID int
}
