package eventbus

import (
	"context"
	"sync"
)

// History хранит последние события шины в кольцевом буфере
type History struct {
	mu    sync.RWMutex
	items []*Envelope
	next  int
	full  bool
	sub   Subscription
}

// NewHistory подписывается на все события и запоминает последние size штук
func NewHistory(bus EventBus, size int) (*History, error) {
	if size <= 0 {
		size = 1
	}
	h := &History{items: make([]*Envelope, size)}
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		h.add(ev)
	})
	if err != nil {
		return nil, err
	}
	h.sub = sub
	return h, nil
}

func (h *History) add(ev *Envelope) {
	h.mu.Lock()
	h.items[h.next] = ev
	h.next = (h.next + 1) % len(h.items)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// Recent возвращает события от старых к новым
func (h *History) Recent() []*Envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		out := make([]*Envelope, h.next)
		copy(out, h.items[:h.next])
		return out
	}
	out := make([]*Envelope, 0, len(h.items))
	out = append(out, h.items[h.next:]...)
	out = append(out, h.items[:h.next]...)
	return out
}

// Close отписывается от шины
func (h *History) Close() {
	if h.sub != nil {
		h.sub.Unsubscribe()
	}
}
