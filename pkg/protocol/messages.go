package protocol

import "fmt"

// JoinRequest 加入房间请求，RoomID 为空时进入默认房间
type JoinRequest struct {
	PlayerName string
	RoomID     string
}

// JoinResponse 加入结果
type JoinResponse struct {
	Success      bool
	PlayerID     int32
	Error        string
	SessionToken string
	RoomID       string
	MatchID      string
	Level        int32
	TPS          int32
}

// ClientInput 一帧的输入
type ClientInput struct {
	Seq   int32
	Up    bool
	Down  bool
	Left  bool
	Right bool
	Bomb  bool
}

// Ping 心跳
type Ping struct {
	ClientTime int64
}

// Pong 心跳回应
type Pong struct {
	ClientTime  int64
	ServerTime  int64
	ServerFrame int32
}

// GameOver 对局结束
type GameOver struct {
	MatchID  string
	Status   string
	WinnerID int32
	Level    int32
}

// ReconnectRequest 断线重连
type ReconnectRequest struct {
	SessionToken string
}

// ReconnectResponse 重连结果
type ReconnectResponse struct {
	Success  bool
	Error    string
	PlayerID int32
	RoomID   string
}

// RoomInfo 房间概况
type RoomInfo struct {
	ID      string
	Players int32
	Max     int32
	Level   int32
	Running bool
}

// ========== 客户端消息 ==========

// NewJoinRequestPacket 构造加入请求
func NewJoinRequestPacket(req JoinRequest) (*Packet, error) {
	return NewPacket(TypeJoinRequest, map[string]any{
		"player_name": req.PlayerName,
		"room_id":     req.RoomID,
	})
}

// NewClientInputPacket 构造输入包
func NewClientInputPacket(in ClientInput) (*Packet, error) {
	return NewPacket(TypeClientInput, map[string]any{
		"seq":   in.Seq,
		"up":    in.Up,
		"down":  in.Down,
		"left":  in.Left,
		"right": in.Right,
		"bomb":  in.Bomb,
	})
}

// NewPingPacket 构造心跳包
func NewPingPacket(clientTime int64) (*Packet, error) {
	return NewPacket(TypePing, map[string]any{"client_time": clientTime})
}

// NewReconnectRequestPacket 构造重连请求
func NewReconnectRequestPacket(token string) (*Packet, error) {
	return NewPacket(TypeReconnectRequest, map[string]any{"session_token": token})
}

// NewRoomListRequestPacket 构造房间列表请求
func NewRoomListRequestPacket() (*Packet, error) {
	return NewPacket(TypeRoomListRequest, nil)
}

// ========== 服务器消息 ==========

// NewJoinResponsePacket 构造加入响应
func NewJoinResponsePacket(resp JoinResponse) (*Packet, error) {
	return NewPacket(TypeJoinResponse, map[string]any{
		"success":       resp.Success,
		"player_id":     resp.PlayerID,
		"error":         resp.Error,
		"session_token": resp.SessionToken,
		"room_id":       resp.RoomID,
		"match_id":      resp.MatchID,
		"level":         resp.Level,
		"tps":           resp.TPS,
	})
}

// NewPongPacket 构造心跳回应
func NewPongPacket(pong Pong) (*Packet, error) {
	return NewPacket(TypePong, map[string]any{
		"client_time":  pong.ClientTime,
		"server_time":  pong.ServerTime,
		"server_frame": pong.ServerFrame,
	})
}

// NewGameOverPacket 构造对局结束包
func NewGameOverPacket(over GameOver) (*Packet, error) {
	return NewPacket(TypeGameOver, map[string]any{
		"match_id":  over.MatchID,
		"status":    over.Status,
		"winner_id": over.WinnerID,
		"level":     over.Level,
	})
}

// NewPlayerLeavePacket 构造玩家离开包
func NewPlayerLeavePacket(playerID int32) (*Packet, error) {
	return NewPacket(TypePlayerLeave, map[string]any{"player_id": playerID})
}

// NewReconnectResponsePacket 构造重连响应
func NewReconnectResponsePacket(resp ReconnectResponse) (*Packet, error) {
	return NewPacket(TypeReconnectResponse, map[string]any{
		"success":   resp.Success,
		"error":     resp.Error,
		"player_id": resp.PlayerID,
		"room_id":   resp.RoomID,
	})
}

// NewRoomListResponsePacket 构造房间列表响应
func NewRoomListResponsePacket(rooms []RoomInfo) (*Packet, error) {
	items := make([]any, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, map[string]any{
			"id":      r.ID,
			"players": r.Players,
			"max":     r.Max,
			"level":   r.Level,
			"running": r.Running,
		})
	}
	return NewPacket(TypeRoomListResponse, map[string]any{"rooms": items})
}

// ========== 解析 ==========

// ParseJoinRequest 解析加入请求
func ParseJoinRequest(p *Packet) (JoinRequest, error) {
	if err := p.expect(TypeJoinRequest); err != nil {
		return JoinRequest{}, err
	}
	return JoinRequest{
		PlayerName: str(p.Payload, "player_name"),
		RoomID:     str(p.Payload, "room_id"),
	}, nil
}

// ParseClientInput 解析输入包
func ParseClientInput(p *Packet) (ClientInput, error) {
	if err := p.expect(TypeClientInput); err != nil {
		return ClientInput{}, err
	}
	return ClientInput{
		Seq:   int32(integer(p.Payload, "seq")),
		Up:    boolean(p.Payload, "up"),
		Down:  boolean(p.Payload, "down"),
		Left:  boolean(p.Payload, "left"),
		Right: boolean(p.Payload, "right"),
		Bomb:  boolean(p.Payload, "bomb"),
	}, nil
}

// ParsePing 解析心跳包
func ParsePing(p *Packet) (Ping, error) {
	if err := p.expect(TypePing); err != nil {
		return Ping{}, err
	}
	return Ping{ClientTime: integer(p.Payload, "client_time")}, nil
}

// ParsePong 解析心跳回应
func ParsePong(p *Packet) (Pong, error) {
	if err := p.expect(TypePong); err != nil {
		return Pong{}, err
	}
	return Pong{
		ClientTime:  integer(p.Payload, "client_time"),
		ServerTime:  integer(p.Payload, "server_time"),
		ServerFrame: int32(integer(p.Payload, "server_frame")),
	}, nil
}

// ParseReconnectRequest 解析重连请求
func ParseReconnectRequest(p *Packet) (ReconnectRequest, error) {
	if err := p.expect(TypeReconnectRequest); err != nil {
		return ReconnectRequest{}, err
	}
	token := str(p.Payload, "session_token")
	if token == "" {
		return ReconnectRequest{}, fmt.Errorf("%w: 缺少 session_token", ErrBadPayload)
	}
	return ReconnectRequest{SessionToken: token}, nil
}

// ParseJoinResponse 解析加入响应
func ParseJoinResponse(p *Packet) (JoinResponse, error) {
	if err := p.expect(TypeJoinResponse); err != nil {
		return JoinResponse{}, err
	}
	return JoinResponse{
		Success:      boolean(p.Payload, "success"),
		PlayerID:     int32(integer(p.Payload, "player_id")),
		Error:        str(p.Payload, "error"),
		SessionToken: str(p.Payload, "session_token"),
		RoomID:       str(p.Payload, "room_id"),
		MatchID:      str(p.Payload, "match_id"),
		Level:        int32(integer(p.Payload, "level")),
		TPS:          int32(integer(p.Payload, "tps")),
	}, nil
}

// ParseGameOver 解析对局结束包
func ParseGameOver(p *Packet) (GameOver, error) {
	if err := p.expect(TypeGameOver); err != nil {
		return GameOver{}, err
	}
	return GameOver{
		MatchID:  str(p.Payload, "match_id"),
		Status:   str(p.Payload, "status"),
		WinnerID: int32(integer(p.Payload, "winner_id")),
		Level:    int32(integer(p.Payload, "level")),
	}, nil
}

// ParsePlayerLeave 解析玩家离开包
func ParsePlayerLeave(p *Packet) (int32, error) {
	if err := p.expect(TypePlayerLeave); err != nil {
		return 0, err
	}
	return int32(integer(p.Payload, "player_id")), nil
}

// ParseReconnectResponse 解析重连响应
func ParseReconnectResponse(p *Packet) (ReconnectResponse, error) {
	if err := p.expect(TypeReconnectResponse); err != nil {
		return ReconnectResponse{}, err
	}
	return ReconnectResponse{
		Success:  boolean(p.Payload, "success"),
		Error:    str(p.Payload, "error"),
		PlayerID: int32(integer(p.Payload, "player_id")),
		RoomID:   str(p.Payload, "room_id"),
	}, nil
}

// ParseRoomListResponse 解析房间列表
func ParseRoomListResponse(p *Packet) ([]RoomInfo, error) {
	if err := p.expect(TypeRoomListResponse); err != nil {
		return nil, err
	}
	var rooms []RoomInfo
	for _, v := range list(p.Payload, "rooms") {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: 房间条目不是对象", ErrBadPayload)
		}
		rooms = append(rooms, RoomInfo{
			ID:      str(s, "id"),
			Players: int32(integer(s, "players")),
			Max:     int32(integer(s, "max")),
			Level:   int32(integer(s, "level")),
			Running: boolean(s, "running"),
		})
	}
	return rooms, nil
}
