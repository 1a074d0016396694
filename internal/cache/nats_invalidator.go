package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultSubject subject уведомлений об инвалидации свойств
const DefaultSubject = "neonite.cache.invalidate"

// InvalidationMessage уведомление об изменённом ключе
type InvalidationMessage struct {
	Key       string    `json:"key"`
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSInvalidator рассылает инвалидацию через NATS Pub/Sub.
// Собственные сообщения узла игнорируются.
type NATSInvalidator struct {
	conn    *nats.Conn
	subject string
	nodeID  string

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSInvalidator подключается к NATS. Пустой subject означает DefaultSubject,
// пустой nodeID генерируется.
func NewNATSInvalidator(url, subject, nodeID string) (*NATSInvalidator, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	conn, err := nats.Connect(url,
		nats.Name("neonite-cache-"+nodeID),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("⚠️ NATS (кеш) отключён: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("🔄 NATS (кеш) переподключён к %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logging.Info("📡 Инвалидация кеша: %s (subject %s, узел %s)", url, subject, nodeID)
	return &NATSInvalidator{
		conn:    conn,
		subject: subject,
		nodeID:  nodeID,
	}, nil
}

// NodeID идентификатор узла
func (n *NATSInvalidator) NodeID() string { return n.nodeID }

// PublishInvalidation рассылает ключ остальным узлам
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	data, err := json.Marshal(InvalidationMessage{Key: key, NodeID: n.nodeID, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish invalidation %s: %w", key, err)
	}
	return nil
}

// SubscribeInvalidations подписывает handler на уведомления чужих узлов
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		return fmt.Errorf("подписка на инвалидацию уже создана")
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		var m InvalidationMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			logging.Warn("⚠️ Некорректное сообщение инвалидации: %v", err)
			return
		}
		if m.NodeID == n.nodeID {
			return
		}
		if err := handler(m.Key); err != nil {
			logging.Error("❌ Инвалидация %s: %v", m.Key, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe invalidations: %w", err)
	}
	n.sub = sub

	go func() {
		<-ctx.Done()
		n.unsubscribe()
	}()
	return nil
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		_ = n.sub.Unsubscribe()
		n.sub = nil
	}
}

// Close снимает подписку и закрывает соединение
func (n *NATSInvalidator) Close() error {
	n.unsubscribe()
	n.conn.Close()
	return nil
}
