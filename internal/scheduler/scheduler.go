// Package scheduler реализует отложенные вызовы в тиках движка
// (аналог runTimeout / runInterval).
package scheduler

import (
	"container/heap"
	"sync"

	"github.com/annel0/neonite-mod/internal/logging"
)

// Handle позволяет отменить запланированную задачу
type Handle struct {
	id        uint64
	cancelled bool
	mu        sync.Mutex
}

// Cancel отменяет задачу; повторный вызов безопасен
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
}

// Cancelled сообщает, была ли задача отменена
func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

type task struct {
	due    uint64
	seq    uint64
	period uint64 // 0: разовая задача
	fn     func()
	handle *Handle
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x interface{}) { *q = append(*q, x.(*task)) }
func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Scheduler очередь задач по номеру тика. Колбэки выполняются в потоке,
// который вызывает Tick; планировать можно из любой горутины.
type Scheduler struct {
	mu      sync.Mutex
	current uint64
	seq     uint64
	queue   taskQueue
}

// New создаёт планировщик на тике 0
func New() *Scheduler {
	return &Scheduler{}
}

// CurrentTick номер последнего обработанного тика
func (s *Scheduler) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Pending количество задач в очереди
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// RunTimeout выполняет fn через delay тиков (0: на следующем тике)
func (s *Scheduler) RunTimeout(delay uint64, fn func()) *Handle {
	return s.schedule(delay, 0, fn)
}

// RunInterval выполняет fn каждые period тиков, первый раз через period
func (s *Scheduler) RunInterval(period uint64, fn func()) *Handle {
	if period == 0 {
		period = 1
	}
	return s.schedule(period, period, fn)
}

func (s *Scheduler) schedule(delay, period uint64, fn func()) *Handle {
	if delay == 0 {
		delay = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	h := &Handle{id: s.seq}
	heap.Push(&s.queue, &task{
		due:    s.current + delay,
		seq:    s.seq,
		period: period,
		fn:     fn,
		handle: h,
	})
	return h
}

// Tick продвигает время на один тик и выполняет все созревшие задачи
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.current++
	now := s.current
	var due []*task
	for len(s.queue) > 0 && s.queue[0].due <= now {
		due = append(due, heap.Pop(&s.queue).(*task))
	}
	s.mu.Unlock()

	for _, t := range due {
		if t.handle.Cancelled() {
			continue
		}
		s.run(t)
		if t.period > 0 && !t.handle.Cancelled() {
			s.mu.Lock()
			s.seq++
			t.due = now + t.period
			t.seq = s.seq
			heap.Push(&s.queue, t)
			s.mu.Unlock()
		}
	}
}

// Advance выполняет n тиков подряд
func (s *Scheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

func (s *Scheduler) run(t *task) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("❌ Паника в задаче планировщика #%d: %v", t.handle.id, r)
		}
	}()
	t.fn()
}
