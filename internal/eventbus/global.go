package eventbus

import (
	"context"
	"sync"
)

var (
	globalMu  sync.RWMutex
	globalBus EventBus
)

// Init устанавливает глобальную шину.
func Init(bus EventBus) {
	globalMu.Lock()
	globalBus = bus
	globalMu.Unlock()
}

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	globalMu.RLock()
	bus := globalBus
	globalMu.RUnlock()
	if bus == nil {
		return nil
	}
	return bus.Publish(ctx, ev)
}

// Emit упаковывает payload в Envelope и публикует в глобальную шину
func Emit(ctx context.Context, eventType string, payload any) error {
	ev, err := NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	return Publish(ctx, ev)
}
