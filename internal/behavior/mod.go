// Package behavior реализует игровые механики мода «Неонит»: переплавку руды
// киркой, рывок мечом, полёт в броне, плиты телепортации, разброс игроков
// крипером, валку деревьев топором, локатор руды и облёт камерой.
package behavior

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/annel0/neonite-mod/internal/config"
	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/scheduler"
	"github.com/annel0/neonite-mod/internal/session"
	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// Идентификаторы предметов, блоков и сущностей мода
const (
	PickaxeID = "stellar:neonite_pickaxe"
	SwordID   = "stellar:neonite_sword"
	AxeID     = "stellar:neonite_axe"
	LocatorID = "stellar:neonite_locator"
	CameraID  = "stellar:neonite_camera"

	HelmetID     = "stellar:neonite_armor_helmet"
	ChestplateID = "stellar:neonite_armor_chestplate"
	LeggingsID   = "stellar:neonite_armor_leggings"
	BootsID      = "stellar:neonite_armor_boots"

	BluePlateID   = "stellar:neonite_blue_plate"
	OrangePlateID = "stellar:neonite_orange_plate"

	CreeperID = "stellar:neonite_creeper"
)

// Ключи кулдаунов в session.Registry
const (
	cooldownDash    = "sword_dash"
	cooldownLocator = "locator"
	cooldownPlate   = "plate"
)

// Deps зависимости мода
type Deps struct {
	World    host.World
	Events   *host.Events
	Sched    *scheduler.Scheduler
	Sessions *session.Registry
	Plates   *storage.PlateRepo // nil: координаты плит не сохраняются
	Bus      eventbus.EventBus  // nil: события не публикуются
	Config   config.BehaviorsConfig
	Metrics  *Metrics
	Rand     *rand.Rand
	Logger   *logging.Logger
}

// Mod экземпляр мода, привязанный к миру
type Mod struct {
	world    host.World
	events   *host.Events
	sched    *scheduler.Scheduler
	sessions *session.Registry
	repo     *storage.PlateRepo
	bus      eventbus.EventBus
	cfg      config.BehaviorsConfig
	metrics  *Metrics
	log      *logging.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand

	ctx     context.Context
	handles []*scheduler.Handle

	platesMu sync.RWMutex
	plates   storage.Plates

	cutMu     sync.Mutex
	cutscenes map[string]*cutscene
}

// New проверяет зависимости и создаёт мод. Обработчики подключаются в Register.
func New(d Deps) (*Mod, error) {
	if d.World == nil {
		return nil, errors.New("behavior: world is nil")
	}
	if d.Events == nil {
		return nil, errors.New("behavior: events are nil")
	}
	if d.Sched == nil {
		return nil, errors.New("behavior: scheduler is nil")
	}
	if d.Sessions == nil {
		d.Sessions = session.NewRegistry(nil)
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.Logger == nil {
		d.Logger = logging.GetBehaviorLogger()
	}
	d.Config = withDefaults(d.Config)

	return &Mod{
		world:     d.World,
		events:    d.Events,
		sched:     d.Sched,
		sessions:  d.Sessions,
		repo:      d.Plates,
		bus:       d.Bus,
		cfg:       d.Config,
		metrics:   d.Metrics,
		log:       d.Logger,
		rnd:       d.Rand,
		ctx:       context.Background(),
		plates:    storage.Plates{},
		cutscenes: make(map[string]*cutscene),
	}, nil
}

// withDefaults подставляет значения по умолчанию вместо нулевых
func withDefaults(c config.BehaviorsConfig) config.BehaviorsConfig {
	def := config.Default().Behaviors
	if c.SwordCooldownMs <= 0 {
		c.SwordCooldownMs = def.SwordCooldownMs
	}
	if c.LocatorCooldownMs <= 0 {
		c.LocatorCooldownMs = def.LocatorCooldownMs
	}
	if c.PlateCooldownMs <= 0 {
		c.PlateCooldownMs = def.PlateCooldownMs
	}
	if c.ArmorPollTicks <= 0 {
		c.ArmorPollTicks = def.ArmorPollTicks
	}
	if c.PlatePollTicks <= 0 {
		c.PlatePollTicks = def.PlatePollTicks
	}
	if c.PlateLoadDelayTicks <= 0 {
		c.PlateLoadDelayTicks = def.PlateLoadDelayTicks
	}
	if c.PrechargePolls < 0 {
		c.PrechargePolls = 0
	}
	if c.LocatorRadius <= 0 {
		c.LocatorRadius = def.LocatorRadius
	}
	if c.CreeperRadius <= 0 {
		c.CreeperRadius = def.CreeperRadius
	}
	return c
}

// Register подписывает обработчики на события и ставит периодические задачи.
// ctx используется для отложенных публикаций и работы с хранилищем.
func (m *Mod) Register(ctx context.Context) {
	if ctx != nil {
		m.ctx = ctx
	}

	m.events.OnPlayerBreakBlock(m.onSmelt)
	m.events.OnPlayerBreakBlock(m.onFell)
	m.events.OnEntityHitEntity(m.onSwordHit)
	m.events.OnItemUse(m.onSwordUse)
	m.events.OnItemUse(m.onLocatorUse)
	m.events.OnItemUse(m.onCameraUse)
	m.events.OnEntityHurt(m.onFallDamage)
	m.events.OnExplosion(m.onCreeperExplosion)
	m.events.OnPlayerLeave(m.onLeave)

	m.handles = append(m.handles,
		m.sched.RunInterval(uint64(m.cfg.ArmorPollTicks), m.pollArmor),
		m.sched.RunInterval(uint64(m.cfg.PlatePollTicks), m.pollPlates),
		m.sched.RunTimeout(uint64(m.cfg.PlateLoadDelayTicks), m.loadPlates),
	)

	m.log.Info("🧩 Мод зарегистрирован: броня каждые %d тиков, плиты каждые %d тиков",
		m.cfg.ArmorPollTicks, m.cfg.PlatePollTicks)
}

// Close снимает периодические задачи и прерывает катсцены
func (m *Mod) Close() {
	for _, h := range m.handles {
		h.Cancel()
	}
	m.handles = nil

	m.cutMu.Lock()
	for id, c := range m.cutscenes {
		c.seq.Cancel()
		delete(m.cutscenes, id)
	}
	m.cutMu.Unlock()
}

// Sessions реестр состояний игроков
func (m *Mod) Sessions() *session.Registry { return m.sessions }

func (m *Mod) onLeave(_ context.Context, ev *host.PlayerLeaveEvent) {
	m.sessions.Remove(ev.PlayerID)
	m.stopCutscene(ev.PlayerID)
}

func (m *Mod) random() float64 {
	m.rndMu.Lock()
	defer m.rndMu.Unlock()
	return m.rnd.Float64()
}

// publish отправляет событие мода в шину; ошибки только логируются
func (m *Mod) publish(ctx context.Context, eventType string, payload any) {
	if m.bus == nil {
		return
	}
	if ctx == nil {
		ctx = m.ctx
	}
	ev, err := eventbus.NewEnvelope(eventType, payload)
	if err != nil {
		m.log.Warn("⚠️ Событие %s не сериализовано: %v", eventType, err)
		return
	}
	if err := m.bus.Publish(ctx, ev); err != nil {
		m.log.Warn("⚠️ Событие %s не опубликовано: %v", eventType, err)
	}
}

func noParticles(amplifier int) host.EffectOptions {
	return host.EffectOptions{Amplifier: amplifier, ShowParticles: false}
}

func sound(pitch float64) host.SoundOptions {
	return host.SoundOptions{Volume: 1, Pitch: pitch}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
