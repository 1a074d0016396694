package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/neonite-mod/internal/api"
	"github.com/annel0/neonite-mod/internal/auth"
	"github.com/annel0/neonite-mod/internal/behavior"
	"github.com/annel0/neonite-mod/internal/cache"
	"github.com/annel0/neonite-mod/internal/components"
	"github.com/annel0/neonite-mod/internal/config"
	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/host/sim"
	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/observability"
	"github.com/annel0/neonite-mod/internal/scheduler"
	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (по умолчанию NEONITE_CONFIG)")
		printToken = flag.Bool("print-token", false, "Выпустить токен администратора и выйти")
		tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "Срок действия токена для -print-token")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if *printToken {
		if cfg.Server.AdminSecret == "" {
			log.Fatalf("❌ server.admin_secret не задан: токен будет недействителен после перезапуска")
		}
		signer, err := auth.NewSigner(cfg.Server.AdminSecret)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		token, err := signer.Issue("admin", true, *tokenTTL)
		if err != nil {
			log.Fatalf("❌ Ошибка выпуска токена: %v", err)
		}
		fmt.Println(token)
		return
	}

	if err := initLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск песочницы мода Neonite...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func initLogging(cfg config.LoggingConfig) error {
	if !cfg.ToFile {
		logging.SetDefaultLogger(logging.NewWriterLogger("server", os.Stdout, logging.ParseLevel(cfg.Level)))
		return nil
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		return err
	}
	logging.Default().SetConsoleLevel(logging.ParseLevel(cfg.Level))
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТЕЛЕМЕТРИЯ ===
	shutdownTracing, err := observability.InitTelemetry(ctx, cfg.Server.ServiceName, cfg.Server.Telemetry)
	if err != nil {
		logging.Warn("⚠️ Трассировка отключена: %v", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(sctx)
		}()
	}

	// === ХРАНИЛИЩЕ ===
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище %s: %w", cfg.Storage.Backend, err)
	}
	if cfg.Storage.Cache.Enabled {
		if store, err = wrapCache(store, cfg.Storage.Cache); err != nil {
			return err
		}
	}
	defer store.Close()
	logging.Info("💾 Хранилище свойств: %s (кеш: %v)", cfg.Storage.Backend, cfg.Storage.Cache.Enabled)

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()
	eventbus.Init(bus)

	history, err := eventbus.NewHistory(bus, 256)
	if err != nil {
		return fmt.Errorf("история событий: %w", err)
	}
	defer history.Close()

	if sub, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логирование событий недоступно: %v", err)
	} else {
		defer sub.Unsubscribe()
	}

	reg := prometheus.DefaultRegisterer
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()

	// === МИР ПЕСОЧНИЦЫ ===
	world := sim.NewWorld()
	stats := sim.GenerateTerrain(world.Overworld(), sim.DefaultTerrain(cfg.Sandbox.Seed, cfg.Sandbox.Size))
	logging.Info("🌍 Ландшафт: %d блоков, %d деревьев, %d руд (seed=%d)",
		stats.Blocks, stats.Trees, stats.Ores, cfg.Sandbox.Seed)

	events := host.NewEvents()
	sched := scheduler.New()

	items := components.NewRegistry(cfg.Sandbox.Seed)
	defs, err := components.LoadDefinitions(cfg.Sandbox.ItemsDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Warn("⚠️ Каталог предметов %s не найден", cfg.Sandbox.ItemsDir)
	case err != nil:
		return fmt.Errorf("описания предметов: %w", err)
	default:
		if err := items.Load(defs...); err != nil {
			return fmt.Errorf("компоненты предметов: %w", err)
		}
		logging.Info("🧩 Загружено предметов: %d", len(defs))
	}
	items.Bind(events)
	spawnPlayers(world, items, cfg.Sandbox.Players)

	// === МОД ===
	mod, err := behavior.New(behavior.Deps{
		World:   world,
		Events:  events,
		Sched:   sched,
		Plates:  storage.NewPlateRepo(store),
		Bus:     bus,
		Config:  cfg.Behaviors,
		Metrics: behavior.NewMetrics(reg),
	})
	if err != nil {
		return fmt.Errorf("мод: %w", err)
	}
	mod.Register(ctx)
	defer mod.Close()

	// === REST API ===
	signer, err := auth.NewSigner(cfg.Server.AdminSecret)
	if err != nil {
		return fmt.Errorf("admin_secret: %w", err)
	}
	if cfg.Server.AdminSecret == "" {
		logging.Warn("⚠️ server.admin_secret не задан: используется случайный ключ, токены действуют до перезапуска")
	}

	gin.SetMode(gin.ReleaseMode)
	restPort := cfg.Server.GetRESTPort()
	rest, err := api.NewRestServer(api.Config{
		Port:        fmt.Sprintf(":%d", restPort),
		ServiceName: cfg.Server.ServiceName,
		Signer:      signer,
		Plates:      mod,
		Sessions:    mod.Sessions(),
		Bus:         bus,
		History:     history,
		Items:       items,
		Registerer:  reg,
		Gatherer:    prometheus.DefaultGatherer,
	})
	if err != nil {
		return fmt.Errorf("REST API: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := rest.Start(); err != nil {
			errCh <- err
		}
	}()

	var metricsSrv *http.Server
	if port := cfg.Server.GetMetricsPort(); port != restPort {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logging.Info("📈 Prometheus: http://localhost:%d/metrics", port)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)
	logging.Info("   ⏱  Тик: %s", cfg.Server.TickInterval())

	// === ТИКИ ===
	ticker := time.NewTicker(cfg.Server.TickInterval())
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения, останавливаемся...")
			break loop
		case err := <-errCh:
			runErr = fmt.Errorf("HTTP сервер: %w", err)
			break loop
		case <-ticker.C:
			sched.Tick()
		}
	}

	// === GRACEFUL SHUTDOWN ===
	wait := time.Duration(cfg.Server.ShutdownWait) * time.Second
	sctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := rest.Stop(sctx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(sctx)
	}
	return runErr
}

// wrapCache кеширует хранилище; с nats_url изменения рассылаются другим узлам
func wrapCache(store storage.PropertyStore, cfg config.CacheConfig) (storage.PropertyStore, error) {
	var inv cache.Invalidator
	if cfg.NATSURL != "" {
		n, err := cache.NewNATSInvalidator(cfg.NATSURL, cfg.Subject, "")
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("инвалидация кеша: %w", err)
		}
		inv = n
	}
	cached, err := cache.NewStore(store, inv, time.Duration(cfg.TTLSeconds)*time.Second)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("кеш свойств: %w", err)
	}
	return cached, nil
}

func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("📡 Шина событий: in-memory (ёмкость %d)", cfg.Capacity)
		return eventbus.NewMemoryBus(cfg.Capacity), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("шина событий %s: %w", cfg.URL, err)
	}
	logging.Info("📡 Шина событий: JetStream %s, стрим %s", cfg.URL, cfg.Stream)
	return bus, nil
}

// spawnPlayers ставит игроков на поверхность у центра мира.
// Первый получает полный комплект неонитовой брони и инструменты.
func spawnPlayers(world *sim.World, items *components.Registry, n int) {
	stack := func(id string) host.ItemStack {
		if def, ok := items.Definition(id); ok {
			return def.NewStack()
		}
		return host.NewItem(id)
	}

	dim := world.Overworld()
	for i := 0; i < n; i++ {
		x := i * 2
		y, ok := dim.SurfaceY(x, 0)
		if !ok {
			y = 0
		}
		p := world.AddPlayer(fmt.Sprintf("Player%d", i+1), dim, vec.Vec3Float{X: float64(x) + 0.5, Y: float64(y + 1), Z: 0.5})
		if i == 0 {
			p.Equip(host.SlotHead, host.NewItem(behavior.HelmetID))
			p.Equip(host.SlotChest, host.NewItem(behavior.ChestplateID))
			p.Equip(host.SlotLegs, host.NewItem(behavior.LeggingsID))
			p.Equip(host.SlotFeet, host.NewItem(behavior.BootsID))
			p.Equip(host.SlotMainhand, stack(behavior.AxeID))
			p.Give(stack(behavior.PickaxeID))
			p.Give(stack(behavior.LocatorID))
		}
		logging.Info("🧍 Игрок %s в (%d, %d, 0)", p.Name(), x, y+1)
	}
}
