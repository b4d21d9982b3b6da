package core

import (
	"fmt"
	"sort"
)

// Handle 实体句柄（槽位下标 + 代数），零值无效
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero 是否为空句柄
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "#nil"
	}
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

// Occupant 占据某格子的实体视图
type Occupant struct {
	Handle   Handle
	Category Category
	Cell     Cell
	Parent   Handle
}

// Spatial 碰撞查询所需的空间协作者
type Spatial interface {
	Bounds() Bounds
	OccupantsAt(cell Cell) []Occupant
}

type slot struct {
	gen        uint32
	alive      bool
	seq        uint64
	category   Category
	cell       Cell
	parent     Handle
	children   []Handle
	collidable bool
}

// World 实体竞技场：统一分配实体、维护所属关系和格子索引
type World struct {
	bounds    Bounds
	slots     []slot
	free      []uint32
	seq       uint64
	cells     map[Cell][]Handle
	listeners []func(Occupant)
}

// NewWorld 创建竞技场
func NewWorld(bounds Bounds) (*World, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("%w: %v..%v", ErrInvalidBounds, bounds.Min, bounds.Max)
	}
	return &World{
		bounds: bounds,
		cells:  make(map[Cell][]Handle),
	}, nil
}

func (w *World) Bounds() Bounds { return w.bounds }

// OnDestroy 注册销毁监听，每个实体销毁时恰好调用一次
func (w *World) OnDestroy(fn func(Occupant)) {
	w.listeners = append(w.listeners, fn)
}

func (w *World) lookup(h Handle) *slot {
	if h.IsZero() || int(h.index) >= len(w.slots) {
		return nil
	}
	s := &w.slots[h.index]
	if !s.alive || s.gen != h.gen {
		return nil
	}
	return s
}

// Alive 句柄是否指向存活实体
func (w *World) Alive(h Handle) bool {
	return w.lookup(h) != nil
}

// Spawn 在格子上创建实体，parent 可为空句柄
func (w *World) Spawn(category Category, cell Cell, parent Handle) (Handle, error) {
	if !w.bounds.Contains(cell) {
		return Handle{}, fmt.Errorf("生成 %s 于 %v: %w", category, cell, ErrOutOfBounds)
	}
	if !parent.IsZero() && w.lookup(parent) == nil {
		return Handle{}, fmt.Errorf("生成 %s 的父实体 %v: %w", category, parent, ErrStaleHandle)
	}

	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.slots = append(w.slots, slot{})
		index = uint32(len(w.slots) - 1)
	}

	w.seq++
	s := &w.slots[index]
	s.gen++
	s.alive = true
	s.seq = w.seq
	s.category = category
	s.cell = cell
	s.parent = parent
	s.children = nil
	s.collidable = true

	h := Handle{index: index, gen: s.gen}
	w.cells[cell] = append(w.cells[cell], h)
	if p := w.lookup(parent); p != nil {
		p.children = append(p.children, h)
	}
	return h, nil
}

// Get 获取实体视图
func (w *World) Get(h Handle) (Occupant, bool) {
	s := w.lookup(h)
	if s == nil {
		return Occupant{}, false
	}
	return Occupant{Handle: h, Category: s.category, Cell: s.cell, Parent: s.parent}, true
}

// Parent 获取父实体，失效句柄返回空
func (w *World) Parent(h Handle) Handle {
	if s := w.lookup(h); s != nil {
		return s.parent
	}
	return Handle{}
}

// Children 获取直接子实体（副本）
func (w *World) Children(h Handle) []Handle {
	s := w.lookup(h)
	if s == nil {
		return nil
	}
	return append([]Handle(nil), s.children...)
}

// Detach 解除与父实体的所属关系
func (w *World) Detach(h Handle) {
	s := w.lookup(h)
	if s == nil {
		return
	}
	w.unlinkChild(s.parent, h)
	s.parent = Handle{}
}

// Move 移动实体到新格子
func (w *World) Move(h Handle, cell Cell) error {
	s := w.lookup(h)
	if s == nil {
		return fmt.Errorf("移动 %v: %w", h, ErrStaleHandle)
	}
	if !w.bounds.Contains(cell) {
		return fmt.Errorf("移动 %v 到 %v: %w", h, cell, ErrOutOfBounds)
	}
	if s.cell == cell {
		return nil
	}
	w.removeFromCell(s.cell, h)
	s.cell = cell
	w.cells[cell] = append(w.cells[cell], h)
	return nil
}

// SetCollidable 开关实体的碰撞体，关闭后不再出现在格子查询中
func (w *World) SetCollidable(h Handle, collidable bool) {
	if s := w.lookup(h); s != nil {
		s.collidable = collidable
	}
}

// Collidable 实体是否有碰撞体
func (w *World) Collidable(h Handle) bool {
	s := w.lookup(h)
	return s != nil && s.collidable
}

// OccupantsAt 返回格子上所有带碰撞体的实体，按生成顺序
func (w *World) OccupantsAt(cell Cell) []Occupant {
	handles := w.cells[cell]
	if len(handles) == 0 {
		return nil
	}
	out := make([]Occupant, 0, len(handles))
	for _, h := range handles {
		s := w.lookup(h)
		if s == nil || !s.collidable {
			continue
		}
		out = append(out, Occupant{Handle: h, Category: s.category, Cell: s.cell, Parent: s.parent})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return w.slots[out[i].Handle.index].seq < w.slots[out[j].Handle.index].seq
	})
	return out
}

// All 返回所有存活实体（含无碰撞体的），按生成顺序
func (w *World) All() []Occupant {
	out := make([]Occupant, 0, len(w.slots))
	for i := range w.slots {
		s := &w.slots[i]
		if !s.alive {
			continue
		}
		out = append(out, Occupant{
			Handle:   Handle{index: uint32(i), gen: s.gen},
			Category: s.category,
			Cell:     s.cell,
			Parent:   s.parent,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return w.slots[out[i].Handle.index].seq < w.slots[out[j].Handle.index].seq
	})
	return out
}

// Count 统计某类别的存活实体数
func (w *World) Count(category Category) int {
	n := 0
	for i := range w.slots {
		if w.slots[i].alive && w.slots[i].category == category {
			n++
		}
	}
	return n
}

// Destroy 销毁实体及其全部后代，重复销毁返回 false
func (w *World) Destroy(h Handle) bool {
	s := w.lookup(h)
	if s == nil {
		return false
	}
	w.unlinkChild(s.parent, h)

	// 先子后父收集整棵子树
	var doomed []Occupant
	var collect func(Handle)
	collect = func(cur Handle) {
		cs := w.lookup(cur)
		if cs == nil {
			return
		}
		for _, child := range cs.children {
			collect(child)
		}
		doomed = append(doomed, Occupant{Handle: cur, Category: cs.category, Cell: cs.cell, Parent: cs.parent})
	}
	collect(h)

	for _, o := range doomed {
		w.release(o.Handle)
	}
	w.notify(doomed)
	return true
}

// Retire 只销毁实体本身，子实体交给它的父实体
func (w *World) Retire(h Handle) bool {
	s := w.lookup(h)
	if s == nil {
		return false
	}
	parent := s.parent
	children := s.children
	w.unlinkChild(parent, h)

	p := w.lookup(parent)
	for _, child := range children {
		cs := w.lookup(child)
		if cs == nil {
			continue
		}
		if p != nil {
			cs.parent = parent
			p.children = append(p.children, child)
		} else {
			cs.parent = Handle{}
		}
	}

	o := Occupant{Handle: h, Category: s.category, Cell: s.cell, Parent: parent}
	s.children = nil
	w.release(h)
	w.notify([]Occupant{o})
	return true
}

func (w *World) release(h Handle) {
	s := &w.slots[h.index]
	w.removeFromCell(s.cell, h)
	s.alive = false
	s.children = nil
	s.parent = Handle{}
	w.free = append(w.free, h.index)
}

func (w *World) notify(destroyed []Occupant) {
	for _, o := range destroyed {
		for _, fn := range w.listeners {
			fn(o)
		}
	}
}

func (w *World) unlinkChild(parent, child Handle) {
	p := w.lookup(parent)
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

func (w *World) removeFromCell(cell Cell, h Handle) {
	handles := w.cells[cell]
	for i, c := range handles {
		if c == h {
			handles = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(handles) == 0 {
		delete(w.cells, cell)
		return
	}
	w.cells[cell] = handles
}
