package server

import "bomberfox/pkg/core"

// EventKind 服务端收到的消息种类
type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoin
	EventInput
	EventPing
	EventPong
	EventReconnect
	EventRoomList
	EventLeave
)

type JoinEvent struct {
	PlayerName string
	RoomID     string // 空字符串表示进入默认房间
}

type InputEvent struct {
	Seq   int32
	Input core.Input
}

type PingEvent struct {
	ClientTime int64
}

type PongEvent struct {
	ClientTime  int64
	ServerTime  int64
	ServerFrame int32
}

type ReconnectEvent struct {
	SessionToken string
}

// ServerEvent 解码后的客户端消息，只有与 Kind 对应的字段非空
type ServerEvent struct {
	Kind      EventKind
	Join      *JoinEvent
	Input     *InputEvent
	Ping      *PingEvent
	Pong      *PongEvent
	Reconnect *ReconnectEvent
}
