package core

// Category 占位物类别，是碰撞规则的唯一输入
type Category int

const (
	CategoryBlock        Category = iota // 不可破坏的方块
	CategoryObstacle                     // 可破坏的障碍
	CategoryBomb                         // 炸弹
	CategoryPlayer                       // 玩家
	CategoryEnemy                        // 敌人
	CategoryShockWave                    // 冲击波片段
	CategoryExplosion                    // 爆炸中心
	CategoryReserved                     // 敌人预占位标记
	CategoryInitialShock                 // 冲击波驱动器
	CategoryExit                         // 关卡出口钥匙

	// CategoryAny 仅用于规则表，匹配任意类别
	CategoryAny Category = -1
)

// String 返回类别标签
func (c Category) String() string {
	switch c {
	case CategoryBlock:
		return "Block"
	case CategoryObstacle:
		return "Obstacle"
	case CategoryBomb:
		return "Bomb"
	case CategoryPlayer:
		return "Player"
	case CategoryEnemy:
		return "Enemy"
	case CategoryShockWave:
		return "ShockWave"
	case CategoryExplosion:
		return "Explosion"
	case CategoryReserved:
		return "Reserved"
	case CategoryInitialShock:
		return "InitialShock"
	case CategoryExit:
		return "Exit"
	case CategoryAny:
		return "Any"
	}
	return "Unknown"
}

// ParseCategory 根据标签解析类别
func ParseCategory(tag string) (Category, bool) {
	for c := CategoryBlock; c <= CategoryExit; c++ {
		if c.String() == tag {
			return c, true
		}
	}
	return 0, false
}
