package protocol

import (
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"bomberfox/pkg/core"
)

// ========== Direction 转换 ==========

// ParseDirection 由方向标签解析方向，未知标签返回 DirNone
func ParseDirection(tag string) core.Direction {
	switch tag {
	case "up":
		return core.DirUp
	case "right":
		return core.DirRight
	case "down":
		return core.DirDown
	case "left":
		return core.DirLeft
	}
	return core.DirNone
}

// ParseStatus 由状态标签解析对局状态
func ParseStatus(tag string) core.Status {
	switch tag {
	case "won":
		return core.StatusWon
	case "lost":
		return core.StatusLost
	}
	return core.StatusRunning
}

func cellFields(c core.Cell) map[string]any {
	return map[string]any{"x": c.X, "y": c.Y}
}

func cellFrom(s *structpb.Struct, key string) core.Cell {
	c := field(s, key).GetStructValue()
	return core.Cell{X: int(integer(c, "x")), Y: int(integer(c, "y"))}
}

// ========== Snapshot 转换 ==========

// NewServerStatePacket 将快照打包为状态包
func NewServerStatePacket(frame int32, snap core.Snapshot) (*Packet, error) {
	entities := make([]any, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		entities = append(entities, map[string]any{
			"id":       strconv.FormatUint(e.ID, 10),
			"category": e.Category.String(),
			"cell":     cellFields(e.Cell),
			"fading":   e.Fading,
			"dir":      e.Dir.String(),
			"distance": e.Distance,
		})
	}
	players := make([]any, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, map[string]any{
			"id":            p.ID,
			"cell":          cellFields(p.Cell),
			"facing":        p.Facing.String(),
			"health":        p.Health,
			"max_health":    p.MaxHealth,
			"current_bombs": p.CurrentBombs,
			"max_bombs":     p.MaxBombs,
			"invulnerable":  p.Invulnerable,
			"dead":          p.Dead,
		})
	}
	return NewPacket(TypeServerState, map[string]any{
		"frame":    frame,
		"time_ms":  snap.Time.Milliseconds(),
		"level":    snap.Level,
		"status":   snap.Status.String(),
		"paused":   snap.Paused,
		"min":      cellFields(snap.Bounds.Min),
		"max":      cellFields(snap.Bounds.Max),
		"entities": entities,
		"players":  players,
	})
}

// ParseServerState 解析状态包，返回帧号和快照
func ParseServerState(p *Packet) (int32, core.Snapshot, error) {
	if err := p.expect(TypeServerState); err != nil {
		return 0, core.Snapshot{}, err
	}
	s := p.Payload
	snap := core.Snapshot{
		Time:   time.Duration(integer(s, "time_ms")) * time.Millisecond,
		Level:  int(integer(s, "level")),
		Status: ParseStatus(str(s, "status")),
		Paused: boolean(s, "paused"),
		Bounds: core.Bounds{Min: cellFrom(s, "min"), Max: cellFrom(s, "max")},
	}

	for _, v := range list(s, "entities") {
		e := v.GetStructValue()
		if e == nil {
			return 0, core.Snapshot{}, fmt.Errorf("%w: 实体不是对象", ErrBadPayload)
		}
		cat, ok := core.ParseCategory(str(e, "category"))
		if !ok {
			return 0, core.Snapshot{}, fmt.Errorf("%w: 未知类别 %q", ErrBadPayload, str(e, "category"))
		}
		eid, err := id(e, "id")
		if err != nil {
			return 0, core.Snapshot{}, err
		}
		snap.Entities = append(snap.Entities, core.OccupantView{
			ID:       eid,
			Category: cat,
			Cell:     cellFrom(e, "cell"),
			Fading:   boolean(e, "fading"),
			Dir:      ParseDirection(str(e, "dir")),
			Distance: int(integer(e, "distance")),
		})
	}

	for _, v := range list(s, "players") {
		pl := v.GetStructValue()
		if pl == nil {
			return 0, core.Snapshot{}, fmt.Errorf("%w: 玩家不是对象", ErrBadPayload)
		}
		snap.Players = append(snap.Players, core.PlayerView{
			ID:           int(integer(pl, "id")),
			Cell:         cellFrom(pl, "cell"),
			Facing:       ParseDirection(str(pl, "facing")),
			Health:       int(integer(pl, "health")),
			MaxHealth:    int(integer(pl, "max_health")),
			CurrentBombs: int(integer(pl, "current_bombs")),
			MaxBombs:     int(integer(pl, "max_bombs")),
			Invulnerable: boolean(pl, "invulnerable"),
			Dead:         boolean(pl, "dead"),
		})
	}
	return int32(integer(s, "frame")), snap, nil
}

// ========== Event 转换 ==========

// NewGameEventPacket 将游戏事件打包
func NewGameEventPacket(ev core.Event) (*Packet, error) {
	return NewPacket(TypeGameEvent, map[string]any{
		"kind":      ev.Kind.String(),
		"time_ms":   ev.Time.Milliseconds(),
		"cell":      cellFields(ev.Cell),
		"handle":    strconv.FormatUint(ev.Handle.ID(), 10),
		"player_id": ev.PlayerID,
	})
}

// GameEvent 网络上的游戏事件，句柄只保留 ID
type GameEvent struct {
	Kind     string
	Time     time.Duration
	Cell     core.Cell
	HandleID uint64
	PlayerID int
}

// ParseGameEvent 解析游戏事件
func ParseGameEvent(p *Packet) (GameEvent, error) {
	if err := p.expect(TypeGameEvent); err != nil {
		return GameEvent{}, err
	}
	hid, err := id(p.Payload, "handle")
	if err != nil {
		return GameEvent{}, err
	}
	return GameEvent{
		Kind:     str(p.Payload, "kind"),
		Time:     time.Duration(integer(p.Payload, "time_ms")) * time.Millisecond,
		Cell:     cellFrom(p.Payload, "cell"),
		HandleID: hid,
		PlayerID: int(integer(p.Payload, "player_id")),
	}, nil
}

// ========== Input 转换 ==========

// ToCoreInput 网络输入转为模拟输入
func (in ClientInput) ToCoreInput() core.Input {
	return core.Input{Up: in.Up, Down: in.Down, Left: in.Left, Right: in.Right, Bomb: in.Bomb}
}

// FromCoreInput 模拟输入转为网络输入
func FromCoreInput(seq int32, in core.Input) ClientInput {
	return ClientInput{Seq: seq, Up: in.Up, Down: in.Down, Left: in.Left, Right: in.Right, Bomb: in.Bomb}
}
