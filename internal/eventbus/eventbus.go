package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("eventbus: bus is closed")

// Приоритеты событий
const (
	PriorityLow    = 1
	PriorityNormal = 4
	PriorityHigh   = 7
)

// Envelope описывает универсальный контейнер события.
// Все поля фиксированы для версиирования и трассировки.
type Envelope struct {
	ID            string            `json:"id"`                       // Глобально уникальный идентификатор (UUID).
	Timestamp     time.Time         `json:"timestamp"`                // Время создания события (UTC).
	Source        string            `json:"source"`                   // Имя сервиса-источника.
	EventType     string            `json:"event_type"`               // Тип события (TreeFelled, PlateTeleport…).
	Version       int               `json:"version"`                  // Схема полезной нагрузки.
	CorrelationID string            `json:"correlation_id,omitempty"` // Для связывания цепочек.
	Priority      int               `json:"priority"`                 // 0=Low … 9=Critical (для backpressure).
	Payload       json.RawMessage   `json:"payload"`                  // Полезная нагрузка в JSON.
	Metadata      map[string]string `json:"metadata,omitempty"`       // Произвольные метаданные.
}

// DefaultSource источник событий мода
const DefaultSource = "neonite-mod"

// NewEnvelope сериализует payload и заполняет служебные поля
func NewEnvelope(eventType string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    DefaultSource,
		EventType: eventType,
		Version:   1,
		Priority:  PriorityNormal,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку в v
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто — все типы.
	Sources []string // Если пусто — все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
	InFlight  int    `json:"in_flight"`
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int

	statsMu sync.Mutex
	stats   Stats

	// closeMu защищает buffer от закрытия во время публикации
	closeMu sync.RWMutex
	closed  bool
	buffer  chan *Envelope
	done    chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	if ev == nil {
		return fmt.Errorf("eventbus: nil envelope")
	}
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.countPublished()
		return nil
	default:
		// Буфер заполнен — дропаём низкий приоритет (<5)
		if ev.Priority < 5 {
			mb.countDropped()
			return nil
		}
		// Для High-priority блокируем до освобождения места или отмены контекста
		select {
		case mb.buffer <- ev:
			mb.countPublished()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mb *memoryBus) countPublished() {
	mb.statsMu.Lock()
	mb.stats.Published++
	mb.statsMu.Unlock()
}

func (mb *memoryBus) countDropped() {
	mb.statsMu.Lock()
	mb.stats.Dropped++
	mb.statsMu.Unlock()
}

func (mb *memoryBus) countConsumed() {
	mb.statsMu.Lock()
	mb.stats.Consumed++
	mb.statsMu.Unlock()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	if h == nil {
		return nil, fmt.Errorf("eventbus: nil handler")
	}
	mb.closeMu.RLock()
	closed := mb.closed
	mb.closeMu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	s := mb.stats
	mb.statsMu.Unlock()
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и дожидается рассылки оставшихся
func (mb *memoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()
	<-mb.done

	mb.mu.Lock()
	for id, sub := range mb.subscribers {
		sub.cancel()
		delete(mb.subscribers, id)
	}
	mb.mu.Unlock()
	return nil
}

// dispatchLoop рассылает события подписчикам.
// Каждый подписчик получает события в порядке публикации.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			mb.deliver(sub, ev)
		}
	}
}

// deliver вызывает обработчик; паника подписчика не останавливает рассылку
func (mb *memoryBus) deliver(s subscriber, ev *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			mb.countDropped()
		}
	}()
	s.handler(s.ctx, ev)
	mb.countConsumed()
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
