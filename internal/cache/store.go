package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/storage"
)

// DefaultTTL время жизни записи кеша по умолчанию
const DefaultTTL = 30 * time.Second

type entry struct {
	value   string
	found   bool
	expires time.Time
}

// Store реализует storage.PropertyStore: чтение через кеш (read-through),
// запись сразу в хранилище (write-through) с рассылкой инвалидации.
// Отсутствие свойства тоже кешируется.
type Store struct {
	backend storage.PropertyStore
	inv     Invalidator
	ttl     time.Duration
	now     func() time.Time
	cancel  context.CancelFunc

	mu      sync.RWMutex
	entries map[string]entry

	requests      int64
	hits          int64
	misses        int64
	invalidations int64
}

var _ storage.PropertyStore = (*Store)(nil)

// NewStore оборачивает backend. inv может быть nil (один узел), ttl <= 0 означает DefaultTTL.
func NewStore(backend storage.PropertyStore, inv Invalidator, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		backend: backend,
		inv:     inv,
		ttl:     ttl,
		now:     time.Now,
		cancel:  cancel,
		entries: make(map[string]entry),
	}
	if inv != nil {
		if err := inv.SubscribeInvalidations(ctx, s.handleInvalidation); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) handleInvalidation(key string) error {
	atomic.AddInt64(&s.invalidations, 1)
	s.drop(key)
	return nil
}

func (s *Store) drop(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) put(key, value string, found bool) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, found: found, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

// Get возвращает значение из кеша или загружает его из хранилища
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	atomic.AddInt64(&s.requests, 1)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.now().Before(e.expires) {
		atomic.AddInt64(&s.hits, 1)
		return e.value, e.found, nil
	}

	atomic.AddInt64(&s.misses, 1)
	value, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	s.put(key, value, found)
	return value, found, nil
}

// Set пишет в хранилище и обновляет кеш
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.drop(key)
		return err
	}
	s.put(key, value, true)
	s.publish(ctx, key)
	return nil
}

// Delete удаляет свойство из хранилища и кеша
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.backend.Delete(ctx, key)
	s.drop(key)
	if err != nil {
		return err
	}
	s.publish(ctx, key)
	return nil
}

// publish ошибка рассылки не отменяет записи: другие узлы увидят её после TTL
func (s *Store) publish(ctx context.Context, key string) {
	if s.inv == nil {
		return
	}
	if err := s.inv.PublishInvalidation(ctx, key); err != nil {
		logging.Warn("⚠️ Инвалидация %s не разослана: %v", key, err)
	}
}

// Metrics снимок счётчиков
func (s *Store) Metrics() Metrics {
	s.mu.RLock()
	keys := len(s.entries)
	s.mu.RUnlock()

	m := Metrics{
		Requests:      atomic.LoadInt64(&s.requests),
		Hits:          atomic.LoadInt64(&s.hits),
		Misses:        atomic.LoadInt64(&s.misses),
		Invalidations: atomic.LoadInt64(&s.invalidations),
		Keys:          keys,
	}
	if m.Requests > 0 {
		m.HitRatio = float64(m.Hits) / float64(m.Requests)
	}
	return m
}

// Close закрывает инвалидатор и хранилище
func (s *Store) Close() error {
	s.cancel()
	if s.inv != nil {
		if err := s.inv.Close(); err != nil {
			logging.Warn("⚠️ Закрытие инвалидатора: %v", err)
		}
	}
	return s.backend.Close()
}
