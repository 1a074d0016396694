// Package api реализует административный REST API мода: состояние сервера,
// координаты плит, сессии игроков, статистику шины и поток событий по websocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/neonite-mod/internal/auth"
	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/middleware"
	"github.com/annel0/neonite-mod/internal/session"
	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// PlateSource источник координат плит телепорта
type PlateSource interface {
	Plates() storage.Plates
}

// ItemCatalog источник описаний предметов
type ItemCatalog interface {
	Items() []string
}

// Config содержит зависимости REST сервера
type Config struct {
	Port        string // адрес для запуска, например ":8088"
	ServiceName string
	Signer      *auth.Signer
	Plates      PlateSource
	Sessions    *session.Registry
	Bus         eventbus.EventBus
	History     *eventbus.History
	Items       ItemCatalog
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
	Logger      *logging.Logger
}

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	signer   *auth.Signer
	plates   PlateSource
	sessions *session.Registry
	bus      eventbus.EventBus
	history  *eventbus.History
	items    ItemCatalog
	metrics  *ServerMetrics
	log      *logging.Logger
	upgrader websocket.Upgrader
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) (*RestServer, error) {
	if cfg.Signer == nil {
		return nil, errors.New("api: signer is nil")
	}
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "neonite_mod"
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())
	promMw := middleware.NewPrometheusMiddleware("rest_api", cfg.Registerer, cfg.Gatherer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	rs := &RestServer{
		router:   router,
		signer:   cfg.Signer,
		plates:   cfg.Plates,
		sessions: cfg.Sessions,
		bus:      cfg.Bus,
		history:  cfg.History,
		items:    cfg.Items,
		metrics:  NewServerMetrics(),
		log:      cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	rs.server = &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.GET("/server", rs.handleServerInfo)

	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/plates", rs.handlePlates)
		protected.GET("/sessions", rs.handleSessions)
		protected.GET("/bus", rs.handleBus)
		protected.GET("/items", rs.handleItems)
	}

	ws := rs.router.Group("/ws")
	ws.Use(rs.jwtMiddleware())
	ws.GET("/events", rs.handleEventStream)
}

// Handler http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler { return rs.router }

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    rs.metrics.Snapshot(),
	})
}

func (rs *RestServer) handlePlates(c *gin.Context) {
	if rs.plates == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Плиты недоступны"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Координаты плит",
		Data:    rs.plates.Plates(),
	})
}

func (rs *RestServer) handleSessions(c *gin.Context) {
	if rs.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Сессии недоступны"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сессии игроков",
		Data:    rs.sessions.Snapshot(),
	})
}

// BusInfo ответ /api/bus
type BusInfo struct {
	Stats  eventbus.Stats       `json:"stats"`
	Recent []*eventbus.Envelope `json:"recent"`
}

// handleBus статистика шины и последние события (?limit=N)
func (rs *RestServer) handleBus(c *gin.Context) {
	if rs.bus == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "Шина событий недоступна"})
		return
	}
	info := BusInfo{Stats: rs.bus.Metrics(), Recent: []*eventbus.Envelope{}}
	if rs.history != nil {
		info.Recent = rs.history.Recent()
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный limit"})
			return
		}
		if limit < len(info.Recent) {
			info.Recent = info.Recent[len(info.Recent)-limit:]
		}
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Шина событий",
		Data:    info,
	})
}

func (rs *RestServer) handleItems(c *gin.Context) {
	items := []string{}
	if rs.items != nil {
		items = rs.items.Items()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Предметы",
		Data:    items,
	})
}
