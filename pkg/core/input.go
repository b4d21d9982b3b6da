package core

// Input 表示一帧内玩家的输入
type Input struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
	Bomb  bool
}

// Direction 将方向键折算为单步方向，同时按下时优先级为上、下、左、右
func (in Input) Direction() Direction {
	switch {
	case in.Up && !in.Down:
		return DirUp
	case in.Down && !in.Up:
		return DirDown
	case in.Left && !in.Right:
		return DirLeft
	case in.Right && !in.Left:
		return DirRight
	}
	return DirNone
}

// IsZero 是否没有任何输入
func (in Input) IsZero() bool {
	return in == Input{}
}
