// Package protocol 客户端与服务端之间的消息格式
//
// 每个包是一个 protobuf Struct：{"type": 消息类型, "payload": 消息体}，
// 在连接上以 4 字节大端长度前缀分帧。
package protocol

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MessageType 消息类型
type MessageType string

const (
	TypeJoinRequest       MessageType = "join_request"
	TypeJoinResponse      MessageType = "join_response"
	TypeClientInput       MessageType = "client_input"
	TypeServerState       MessageType = "server_state"
	TypeGameEvent         MessageType = "game_event"
	TypeGameOver          MessageType = "game_over"
	TypePlayerLeave       MessageType = "player_leave"
	TypePing              MessageType = "ping"
	TypePong              MessageType = "pong"
	TypeReconnectRequest  MessageType = "reconnect_request"
	TypeReconnectResponse MessageType = "reconnect_response"
	TypeRoomListRequest   MessageType = "room_list_request"
	TypeRoomListResponse  MessageType = "room_list_response"
)

var (
	ErrMissingType  = errors.New("数据包缺少类型")
	ErrWrongType    = errors.New("数据包类型不匹配")
	ErrBadPayload   = errors.New("数据包内容非法")
	ErrFrameTooBig  = errors.New("数据帧过大")
	ErrUnknownProto = errors.New("不支持的传输协议")
)

// Packet 一个待发送或已接收的数据包
type Packet struct {
	Type    MessageType
	Payload *structpb.Struct
}

// NewPacket 用字段表构造数据包
func NewPacket(t MessageType, fields map[string]any) (*Packet, error) {
	payload, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("构造 %s: %w", t, err)
	}
	return &Packet{Type: t, Payload: payload}, nil
}

// Marshal 序列化数据包
func Marshal(p *Packet) ([]byte, error) {
	if p == nil || p.Type == "" {
		return nil, ErrMissingType
	}
	payload := p.Payload
	if payload == nil {
		payload = &structpb.Struct{}
	}
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":    structpb.NewStringValue(string(p.Type)),
		"payload": structpb.NewStructValue(payload),
	}}
	return proto.Marshal(env)
}

// Unmarshal 反序列化数据包
func Unmarshal(data []byte) (*Packet, error) {
	env := &structpb.Struct{}
	if err := proto.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("解析数据包: %w", err)
	}
	t := env.GetFields()["type"].GetStringValue()
	if t == "" {
		return nil, ErrMissingType
	}
	payload := env.GetFields()["payload"].GetStructValue()
	if payload == nil {
		payload = &structpb.Struct{}
	}
	return &Packet{Type: MessageType(t), Payload: payload}, nil
}

func (p *Packet) expect(t MessageType) error {
	if p == nil {
		return ErrMissingType
	}
	if p.Type != t {
		return fmt.Errorf("%w: 期望 %s, 实际 %s", ErrWrongType, t, p.Type)
	}
	return nil
}

// ========== 字段读取 ==========

func field(s *structpb.Struct, key string) *structpb.Value {
	return s.GetFields()[key]
}

func str(s *structpb.Struct, key string) string {
	return field(s, key).GetStringValue()
}

func boolean(s *structpb.Struct, key string) bool {
	return field(s, key).GetBoolValue()
}

func integer(s *structpb.Struct, key string) int64 {
	return int64(field(s, key).GetNumberValue())
}

func list(s *structpb.Struct, key string) []*structpb.Value {
	return field(s, key).GetListValue().GetValues()
}

// id 句柄 ID 以字符串传输，避免超出 float64 精度
func id(s *structpb.Struct, key string) (uint64, error) {
	v := str(s, key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadPayload, key, v)
	}
	return n, nil
}
