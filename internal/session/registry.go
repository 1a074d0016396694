// Package session хранит состояние игроков на время сессии: кулдауны и полёт.
// Реестр передаётся обработчикам явно, глобального состояния нет.
package session

import (
	"sort"
	"sync"
	"time"
)

// Record состояние одного игрока
type Record struct {
	mu        sync.Mutex
	actorID   string
	cooldowns map[string]time.Time // ключ -> момент последнего использования
	flight    FlightState
	precharge int
	joinedAt  time.Time
}

// ActorID идентификатор игрока
func (r *Record) ActorID() string { return r.actorID }

// Snapshot копия состояния для API
type Snapshot struct {
	ActorID   string               `json:"actor_id"`
	Flight    string               `json:"flight"`
	Cooldowns map[string]time.Time `json:"cooldowns"`
	JoinedAt  time.Time            `json:"joined_at"`
}

// Registry реестр записей по стабильному идентификатору игрока
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewRegistry создаёт реестр; clock == nil означает time.Now
func NewRegistry(clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		records: make(map[string]*Record),
		now:     clock,
	}
}

// Get возвращает запись игрока, создавая её при первом обращении
func (r *Registry) Get(actorID string) *Record {
	r.mu.RLock()
	rec, ok := r.records[actorID]
	r.mu.RUnlock()
	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[actorID]; ok {
		return rec
	}
	rec = &Record{
		actorID:   actorID,
		cooldowns: make(map[string]time.Time),
		joinedAt:  r.now(),
	}
	r.records[actorID] = rec
	return rec
}

// Lookup возвращает запись без создания
func (r *Registry) Lookup(actorID string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[actorID]
	return rec, ok
}

// Remove удаляет запись (выход игрока)
func (r *Registry) Remove(actorID string) {
	r.mu.Lock()
	delete(r.records, actorID)
	r.mu.Unlock()
}

// Len количество записей
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// TryUse проверяет кулдаун key и, если он истёк, отмечает использование.
// При активном кулдауне возвращает оставшееся время и false.
func (r *Registry) TryUse(actorID, key string, cooldown time.Duration) (time.Duration, bool) {
	rec := r.Get(actorID)
	now := r.now()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if last, ok := rec.cooldowns[key]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return cooldown - elapsed, false
		}
	}
	rec.cooldowns[key] = now
	return 0, true
}

// Snapshot возвращает копии всех записей, отсортированные по ActorID
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	recs := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		cd := make(map[string]time.Time, len(rec.cooldowns))
		for k, v := range rec.cooldowns {
			cd[k] = v
		}
		out = append(out, Snapshot{
			ActorID:   rec.actorID,
			Flight:    rec.flight.String(),
			Cooldowns: cd,
			JoinedAt:  rec.joinedAt,
		})
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out
}
