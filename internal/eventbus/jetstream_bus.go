package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/neonite-mod/internal/logging"
)

// JetStreamBus реализует EventBus поверх NATS JetStream.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	prefix    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// SubjectPrefix префикс subject'ов стрима: "NEONITE" -> "neonite"
func SubjectPrefix(stream string) string {
	return strings.ToLower(stream)
}

// NewJetStreamBus подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "NEONITE" (subjects neonite.<type>).
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "NEONITE"
	}

	nc, err := nats.Connect(url, nats.Name("neonite-mod"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	prefix := SubjectPrefix(stream)
	if _, err = js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{prefix + ".*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream: %w", err)
		}
		logging.Info("📡 JetStream: создан стрим %s (%s.*)", stream, prefix)
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream, prefix: prefix}, nil
}

// Publish сериализует Envelope в JSON и публикует в subject <prefix>.<type>.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return err
	}
	if _, err = jb.js.Publish(jb.prefix+"."+ev.EventType, data, nats.Context(ctx)); err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return err
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe получает только новые события.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	return jb.SubscribeFrom(ctx, f, false, h)
}

// SubscribeFrom создаёт эфемерного потребителя; deliverAll=true читает стрим с начала.
// Подписка снимается при отмене ctx.
func (jb *JetStreamBus) SubscribeFrom(ctx context.Context, f Filter, deliverAll bool, h Handler) (Subscription, error) {
	subj := jb.prefix + ".*"
	if len(f.Types) == 1 {
		subj = jb.prefix + "." + f.Types[0]
	}

	deliver := nats.DeliverNew()
	if deliverAll {
		deliver = nats.DeliverAll()
	}

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			_ = msg.Term()
			return
		}
		if matchFilter(&ev, f) {
			h(ctx, &ev)
			atomic.AddUint64(&jb.consumed, 1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), deliver, nats.AckWait(30*time.Second))
	if err != nil {
		return nil, err
	}

	sub := &jetSub{s: natSub}
	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return sub, nil
}

// jetSub обёртка вокруг *nats.Subscription чтобы удовлетворить наш интерфейс.
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	if j.s.IsValid() {
		_ = j.s.Unsubscribe()
	}
}

// StreamMessages число сообщений в стриме
func (jb *JetStreamBus) StreamMessages() (uint64, error) {
	info, err := jb.js.StreamInfo(jb.stream)
	if err != nil {
		return 0, err
	}
	return info.State.Msgs, nil
}

// Metrics возвращает текущие метрики.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
		InFlight:  0, // jetstream keeps its own queue
	}
}

// Close дожидается отправки и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}
