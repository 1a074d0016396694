package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingPeriod   = 30 * time.Second
	wsQueueSize    = 64
)

// handleEventStream транслирует события шины в websocket.
// ?types=TreeFelled,PlateTeleport ограничивает типы событий.
func (rs *RestServer) handleEventStream(c *gin.Context) {
	if rs.bus == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Шина событий недоступна"})
		return
	}

	var filter eventbus.Filter
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Подписка до upgrade: клиент получает все события после рукопожатия
	out := make(chan *eventbus.Envelope, wsQueueSize)
	sub, err := rs.bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case out <- ev:
		default:
			// медленный клиент: событие пропускается
		}
	})
	if err != nil {
		rs.log.Error("❌ Подписка websocket: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: "Подписка не удалась"})
		return
	}
	defer sub.Unsubscribe()

	conn, err := rs.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rs.log.Warn("⚠️ Websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	rs.log.Info("🔌 Websocket-клиент подключён %s types=%v", c.ClientIP(), filter.Types)

	// Reader: клиент ничего не присылает, чтение нужно для обработки close/pong
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			rs.log.Info("🔌 Websocket-клиент отключён %s", c.ClientIP())
			return
		case ev := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				rs.log.Debug("Websocket запись: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
