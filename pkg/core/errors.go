package core

import "errors"

var (
	ErrMissingCollaborator = errors.New("缺少必需的协作者")
	ErrInvalidBounds       = errors.New("竞技场边界非法")
	ErrOutOfBounds         = errors.New("格子超出竞技场边界")
	ErrInvalidConfig       = errors.New("配置非法")
	ErrNoOwner             = errors.New("炸弹必须有所属玩家")
	ErrUnknownPlayer       = errors.New("玩家不存在")
	ErrStaleHandle         = errors.New("实体句柄已失效")
)
