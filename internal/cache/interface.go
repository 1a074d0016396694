// Package cache кеширует свойства мира поверх медленного хранилища
// (Redis, MySQL, MongoDB) и рассылает инвалидацию между узлами через NATS.
package cache

import (
	"context"
)

// Invalidator рассылает и принимает уведомления об изменённых ключах.
type Invalidator interface {
	// PublishInvalidation сообщает другим узлам, что ключ изменился.
	PublishInvalidation(ctx context.Context, key string) error

	// SubscribeInvalidations подписывается на уведомления других узлов.
	// Подписка снимается при отмене ctx или Close.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	Close() error
}

// InvalidationHandler обрабатывает уведомление об инвалидации ключа.
type InvalidationHandler func(key string) error

// Metrics счётчики кеша
type Metrics struct {
	Requests      int64   `json:"requests"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRatio      float64 `json:"hit_ratio"`
	Invalidations int64   `json:"invalidations"`
	Keys          int     `json:"keys"`
}
