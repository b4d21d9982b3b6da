package server

// Session 房间眼中的一个客户端连接，测试中可以替换
type Session interface {
	ID() int32
	SetPlayerID(id int32)
	RoomID() string
	SetRoomID(id string)
	Send(data []byte) error
	Close()
	CloseWithoutNotify()
}
