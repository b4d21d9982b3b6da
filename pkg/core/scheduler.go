package core

import (
	"container/heap"
	"time"
)

// scheduledEvent 定时事件，owner 被销毁后事件作废
type scheduledEvent struct {
	at    time.Duration
	seq   uint64
	owner Handle
	fn    func()
	index int
}

// eventQueue 按 (时间, 序号) 排序的最小堆
type eventQueue []*scheduledEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*scheduledEvent)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}

// Scheduler 以模拟时间为键的事件队列，替代协程式等待
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue eventQueue
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now 当前模拟时间
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending 待执行事件数
func (s *Scheduler) Pending() int { return len(s.queue) }

// After 在 delay 之后执行 fn；owner 非空时，owner 失效则跳过
func (s *Scheduler) After(delay time.Duration, owner Handle, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.At(s.now+delay, owner, fn)
}

// At 在指定模拟时间执行 fn
func (s *Scheduler) At(at time.Duration, owner Handle, fn func()) {
	s.seq++
	heap.Push(&s.queue, &scheduledEvent{at: at, seq: s.seq, owner: owner, fn: fn})
}

// Advance 推进到 to，按顺序执行所有到期事件（包括执行期间新加入且已到期的），返回执行数
func (s *Scheduler) Advance(to time.Duration, alive func(Handle) bool) int {
	ran := 0
	for len(s.queue) > 0 && s.queue[0].at <= to {
		ev := heap.Pop(&s.queue).(*scheduledEvent)
		if ev.at > s.now {
			s.now = ev.at
		}
		if !ev.owner.IsZero() && alive != nil && !alive(ev.owner) {
			continue
		}
		ev.fn()
		ran++
	}
	if to > s.now {
		s.now = to
	}
	return ran
}
