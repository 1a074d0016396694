package behavior

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/annel0/neonite-mod/internal/config"
	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/host/sim"
	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/scheduler"
	"github.com/annel0/neonite-mod/internal/session"
	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/annel0/neonite-mod/internal/voxel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureBus синхронно запоминает опубликованные события
type captureBus struct {
	mu     sync.Mutex
	events []*eventbus.Envelope
}

func (b *captureBus) Publish(_ context.Context, ev *eventbus.Envelope) error {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	return nil
}

func (b *captureBus) Subscribe(context.Context, eventbus.Filter, eventbus.Handler) (eventbus.Subscription, error) {
	return nil, nil
}

func (b *captureBus) Metrics() eventbus.Stats { return eventbus.Stats{} }
func (b *captureBus) Close() error            { return nil }

func (b *captureBus) ofType(t string) []*eventbus.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*eventbus.Envelope
	for _, ev := range b.events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	w        *sim.World
	dim      *sim.Dimension
	p        *sim.Player
	events   *host.Events
	sched    *scheduler.Scheduler
	sessions *session.Registry
	store    *storage.MemoryStore
	repo     *storage.PlateRepo
	bus      *captureBus
	metrics  *Metrics
	mod      *Mod
	now      time.Time
}

func newFixture(t *testing.T, mutate ...func(*config.BehaviorsConfig)) *fixture {
	t.Helper()
	f := &fixture{
		w:      sim.NewWorld(),
		events: host.NewEvents(),
		sched:  scheduler.New(),
		store:  storage.NewMemoryStore(),
		bus:    &captureBus{},
		now:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.dim = f.w.Overworld()
	f.p = f.w.AddPlayer("Steve", f.dim, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5})
	f.sessions = session.NewRegistry(func() time.Time { return f.now })
	f.repo = storage.NewPlateRepo(f.store)
	f.metrics = NewMetrics(prometheus.NewRegistry())

	cfg := config.Default().Behaviors
	for _, fn := range mutate {
		fn(&cfg)
	}

	mod, err := New(Deps{
		World:    f.w,
		Events:   f.events,
		Sched:    f.sched,
		Sessions: f.sessions,
		Plates:   f.repo,
		Bus:      f.bus,
		Config:   cfg,
		Metrics:  f.metrics,
		Rand:     rand.New(rand.NewSource(7)),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	mod.Register(context.Background())
	t.Cleanup(mod.Close)
	f.mod = mod
	return f
}

func (f *fixture) hold(item host.ItemStack) *host.ItemStack {
	f.p.Equip(host.SlotMainhand, item)
	return f.p.Equipment(host.SlotMainhand)
}

func (f *fixture) wearFullSet() {
	f.p.Equip(host.SlotHead, host.NewItem(HelmetID))
	f.p.Equip(host.SlotChest, host.NewItem(ChestplateID))
	f.p.Equip(host.SlotLegs, host.NewItem(LeggingsID))
	f.p.Equip(host.SlotFeet, host.NewItem(BootsID))
}

func (f *fixture) use(item *host.ItemStack) {
	f.events.EmitItemUse(context.Background(), &host.ItemUseEvent{Source: f.p, Item: item})
}

func testLogger() *logging.Logger {
	return logging.NewWriterLogger("behavior", io.Discard, logging.WARN)
}

func triggers(m *Metrics, label string) float64 {
	return testutil.ToFloat64(m.Triggers.WithLabelValues(label))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{World: sim.NewWorld(), Events: host.NewEvents()})
	assert.Error(t, err)

	m, err := New(Deps{World: sim.NewWorld(), Events: host.NewEvents(), Sched: scheduler.New(), Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, 8, m.cfg.LocatorRadius)
	assert.NotNil(t, m.Sessions())
}

func TestParseOre(t *testing.T) {
	cases := map[string]string{
		"minecraft:iron_ore":           "minecraft:raw_iron",
		"minecraft:deepslate_iron_ore": "minecraft:raw_iron",
		"minecraft:deepslate_ore":      "minecraft:raw_deepslate",
		"minecraft:raw_gold":           "minecraft:gold_ingot",
		"stellar:raw_neonite":          "stellar:neonite_ingot",
		"minecraft:stone":              "unknown",
		"iron_ore":                     "iron_ore",
		"minecraft:":                   "minecraft:",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseOre(in), in)
	}
}

func TestWoodFamily(t *testing.T) {
	cases := []struct {
		id     string
		family string
		ok     bool
	}{
		{"minecraft:oak_log", "minecraft:oak", true},
		{"minecraft:stripped_oak_log", "minecraft:oak", true},
		{"minecraft:oak_wood", "minecraft:oak", true},
		{"minecraft:crimson_stem", "minecraft:crimson", true},
		{"minecraft:warped_hyphae", "minecraft:warped", true},
		{"minecraft:oak_leaves", "", false},
		{"minecraft:_log", "", false},
		{"birch_log", "birch", true},
	}
	for _, tc := range cases {
		family, ok := WoodFamily(tc.id)
		assert.Equal(t, tc.ok, ok, tc.id)
		assert.Equal(t, tc.family, family, tc.id)
	}
}

func TestSmelting_ReplacesMatchingDrops(t *testing.T) {
	f := newFixture(t)
	pick := f.hold(host.NewItem(PickaxeID))
	pos := vec.Vec3{X: 2, Y: 10, Z: 2}

	_, err := f.dim.SpawnItem(host.NewItem("minecraft:raw_iron"), vec.Vec3Float{X: 2.5, Y: 10.2, Z: 2.5})
	require.NoError(t, err)
	_, err = f.dim.SpawnItem(host.NewItem("minecraft:cobblestone"), vec.Vec3Float{X: 2.5, Y: 10.2, Z: 2.5})
	require.NoError(t, err)
	_, err = f.dim.SpawnItem(host.NewItem("minecraft:raw_iron"), vec.Vec3Float{X: 9, Y: 10, Z: 9})
	require.NoError(t, err)

	f.events.EmitPlayerBreakBlock(context.Background(), &host.PlayerBreakBlockEvent{
		Player:    f.p,
		Dimension: f.dim,
		Pos:       pos,
		Broken:    voxel.Block{TypeID: "minecraft:deepslate_iron_ore"},
		Item:      pick,
	})

	var types []string
	for _, it := range f.dim.Items() {
		types = append(types, it.Item().TypeID)
	}
	assert.ElementsMatch(t, []string{"minecraft:cobblestone", "minecraft:raw_iron", "minecraft:iron_ingot"}, types)

	assert.False(t, f.w.Recorder.Has(sim.KindSound, "random.anvil_use"))
	f.sched.Advance(2)
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "random.anvil_use"))
	assert.True(t, f.w.Recorder.Has(sim.KindParticle, "minecraft:enchanting_table_particle"))

	evs := f.bus.ofType(eventbus.TypeOreSmelted)
	require.Len(t, evs, 1)
	var payload eventbus.OreSmelted
	require.NoError(t, evs[0].Decode(&payload))
	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, "minecraft:iron_ingot", payload.Ingot)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Smelted))
}

func TestSmelting_IgnoresOtherTools(t *testing.T) {
	f := newFixture(t)
	sword := f.hold(host.NewItem(SwordID))
	_, err := f.dim.SpawnItem(host.NewItem("minecraft:raw_gold"), vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5})
	require.NoError(t, err)

	f.events.EmitPlayerBreakBlock(context.Background(), &host.PlayerBreakBlockEvent{
		Player:    f.p,
		Dimension: f.dim,
		Pos:       vec.Vec3{X: 0, Y: 10, Z: 0},
		Broken:    voxel.Block{TypeID: "minecraft:gold_ore"},
		Item:      sword,
	})

	require.Len(t, f.dim.Items(), 1)
	assert.Equal(t, "minecraft:raw_gold", f.dim.Items()[0].Item().TypeID)
	assert.Zero(t, triggers(f.metrics, labelSmelt))
}

func TestSwordHit_BuffsAttacker(t *testing.T) {
	f := newFixture(t)
	f.hold(host.NewItem(SwordID))
	zombie, err := f.dim.SpawnEntity("minecraft:zombie", vec.Vec3Float{X: 1, Y: 10, Z: 1})
	require.NoError(t, err)

	f.events.EmitEntityHitEntity(context.Background(), &host.EntityHitEntityEvent{Attacker: f.p, Target: zombie})

	strength, ok := f.p.Effect("strength")
	require.True(t, ok)
	assert.Equal(t, 40, strength.Duration)
	assert.Equal(t, 3, strength.Amplifier)
	assert.False(t, strength.ShowParticles)
	speed, ok := f.p.Effect("speed")
	require.True(t, ok)
	assert.Equal(t, 2, speed.Amplifier)
}

func TestSwordDash(t *testing.T) {
	f := newFixture(t)
	sword := f.hold(host.NewItem(SwordID))
	f.p.SetViewDirection(vec.Vec3Float{X: 1})

	near, err := f.dim.SpawnEntity("minecraft:zombie", vec.Vec3Float{X: 1.5, Y: 10, Z: 0.5})
	require.NoError(t, err)
	far, err := f.dim.SpawnEntity("minecraft:zombie", vec.Vec3Float{X: 20, Y: 10, Z: 0.5})
	require.NoError(t, err)
	drop, err := f.dim.SpawnItem(host.NewItem("minecraft:stick"), vec.Vec3Float{X: 0.5, Y: 10, Z: 1})
	require.NoError(t, err)

	f.use(sword)
	assert.Empty(t, f.w.Recorder.Of(sim.KindDamage))

	f.sched.Advance(2)
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "mob.enderdragon.flap"))
	assert.Empty(t, f.w.Recorder.Of(sim.KindDamage))

	f.sched.Advance(6)
	damage := f.w.Recorder.Of(sim.KindDamage)
	require.Len(t, damage, 1)
	assert.Equal(t, near.ID(), damage[0].Target)
	assert.Equal(t, "entityAttack", damage[0].Name)
	assert.NotEqual(t, far.ID(), damage[0].Target)
	assert.NotEqual(t, drop.ID(), damage[0].Target)

	assert.InDelta(t, 2.5, f.p.Impulse().X, 1e-9)
	assert.InDelta(t, 0, f.p.Impulse().Y, 1e-9)
	assert.Contains(t, f.p.LastMessage(), "Спецатака активирована")

	evs := f.bus.ofType(eventbus.TypeDashActivated)
	require.Len(t, evs, 1)
	var payload eventbus.DashActivated
	require.NoError(t, evs[0].Decode(&payload))
	assert.Equal(t, 1, payload.Hit)
}

func TestSwordDash_Cooldown(t *testing.T) {
	f := newFixture(t)
	sword := f.hold(host.NewItem(SwordID))

	f.use(sword)
	f.use(sword)
	assert.Contains(t, f.p.LastMessage(), "5.0с")

	f.now = f.now.Add(3500 * time.Millisecond)
	f.use(sword)
	assert.Contains(t, f.p.LastMessage(), "1.5с")

	f.now = f.now.Add(1500 * time.Millisecond)
	f.use(sword)
	assert.Equal(t, 2.0, triggers(f.metrics, labelDash))
}

func TestSwordDash_SkipsRemovedPlayer(t *testing.T) {
	f := newFixture(t)
	sword := f.hold(host.NewItem(SwordID))
	_, err := f.dim.SpawnEntity("minecraft:zombie", vec.Vec3Float{X: 1.5, Y: 10, Z: 0.5})
	require.NoError(t, err)

	f.use(sword)
	require.True(t, f.w.RemovePlayer(f.p.ID()))
	f.sched.Advance(10)

	assert.Empty(t, f.w.Recorder.Of(sim.KindDamage))
	assert.Empty(t, f.bus.ofType(eventbus.TypeDashActivated))
}

func TestArmor_FlightCycle(t *testing.T) {
	f := newFixture(t, func(c *config.BehaviorsConfig) { c.PrechargePolls = 1 })
	f.wearFullSet()
	rec := f.sessions.Get(f.p.ID())

	f.sched.Advance(5)
	for _, name := range []string{"strength", "resistance", "regeneration", "speed", "night_vision"} {
		_, ok := f.p.Effect(name)
		assert.True(t, ok, name)
	}
	nv, _ := f.p.Effect("night_vision")
	assert.Equal(t, 220, nv.Duration)
	assert.Equal(t, session.Grounded, rec.Flight())

	f.p.SetSneaking(true)
	f.sched.Advance(5)
	assert.Equal(t, session.Precharging, rec.Flight())
	_, levitating := f.p.Effect("levitation")
	assert.True(t, levitating)
	assert.False(t, f.w.Recorder.Has(sim.KindSound, "mob.enderdragon.flap"))

	f.sched.Advance(5)
	assert.Equal(t, session.Flying, rec.Flight())
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "mob.enderdragon.flap"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Flying))

	f.p.SetSneaking(false)
	f.sched.Advance(5)
	assert.Equal(t, session.Grounded, rec.Flight())
	_, levitating = f.p.Effect("levitation")
	assert.False(t, levitating)
	assert.False(t, f.w.Recorder.Has(sim.KindSound, "random.explode"))

	f.sched.Advance(1)
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "random.explode"))
	assert.Zero(t, testutil.ToFloat64(f.metrics.Flying))

	var transitions []string
	for _, ev := range f.bus.ofType(eventbus.TypeFlightChanged) {
		var payload eventbus.FlightChanged
		require.NoError(t, ev.Decode(&payload))
		transitions = append(transitions, payload.Transition)
	}
	assert.Equal(t, []string{"precharge", "takeoff", "land"}, transitions)
}

func TestArmor_IncompleteSetResetsFlight(t *testing.T) {
	f := newFixture(t, func(c *config.BehaviorsConfig) { c.PrechargePolls = 0 })
	f.wearFullSet()
	f.p.SetSneaking(true)
	rec := f.sessions.Get(f.p.ID())

	f.sched.Advance(5)
	require.Equal(t, session.Flying, rec.Flight())

	require.NoError(t, f.p.SetEquipment(host.SlotHead, nil))
	f.sched.Advance(5)
	assert.Equal(t, session.Grounded, rec.Flight())
	_, levitating := f.p.Effect("levitation")
	assert.False(t, levitating)
	assert.False(t, f.w.Recorder.Has(sim.KindSound, "random.explode"))
}

func TestArmor_FallDamageRefund(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.p.SetHealth(14))

	f.events.EmitEntityHurt(context.Background(), &host.EntityHurtEvent{Hurt: f.p, Cause: "fall", Damage: 4})
	cur, _ := f.p.Health()
	assert.Equal(t, 14.0, cur)

	f.wearFullSet()
	f.events.EmitEntityHurt(context.Background(), &host.EntityHurtEvent{Hurt: f.p, Cause: "lava", Damage: 4})
	cur, _ = f.p.Health()
	assert.Equal(t, 14.0, cur)

	f.events.EmitEntityHurt(context.Background(), &host.EntityHurtEvent{Hurt: f.p, Cause: "fall", Damage: 4})
	cur, _ = f.p.Health()
	assert.Equal(t, 18.0, cur)

	f.events.EmitEntityHurt(context.Background(), &host.EntityHurtEvent{Hurt: f.p, Cause: "fall", Damage: 9})
	cur, max := f.p.Health()
	assert.Equal(t, max, cur)
	assert.True(t, f.w.Recorder.Has(sim.KindParticle, "minecraft:sonic_explosion_emitter"))
}

func TestPlates_RecordAndTeleport(t *testing.T) {
	f := newFixture(t)
	blue := vec.Vec3{X: 0, Y: 9, Z: 0}
	orange := vec.Vec3{X: 10, Y: 9, Z: 10}
	f.dim.Place(blue, BluePlateID)
	f.dim.Place(orange, OrangePlateID)

	f.sched.Advance(6)
	plates := f.mod.Plates()
	require.NotNil(t, plates[sim.Overworld].Blue)
	assert.Equal(t, blue, *plates[sim.Overworld].Blue)
	assert.Nil(t, plates[sim.Overworld].Orange)
	assert.Equal(t, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5}, f.p.Location())

	saved, found, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, blue, *saved[sim.Overworld].Blue)

	f.p.SetLocation(vec.Vec3Float{X: 10.5, Y: 10, Z: 10.5})
	f.sched.Advance(6)
	assert.Equal(t, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5}, f.p.Location())
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "mob.enderman.portal"))

	// Кулдаун плит не даёт сразу отправить игрока обратно
	f.sched.Advance(6)
	assert.Equal(t, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5}, f.p.Location())

	f.now = f.now.Add(3 * time.Second)
	f.sched.Advance(6)
	assert.Equal(t, vec.Vec3Float{X: 10.5, Y: 10, Z: 10.5}, f.p.Location())

	evs := f.bus.ofType(eventbus.TypePlateTeleport)
	require.Len(t, evs, 2)
	var first eventbus.PlateTeleport
	require.NoError(t, evs[0].Decode(&first))
	assert.Equal(t, OrangePlateID, first.Plate)
	assert.Equal(t, orange, first.From)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Teleports))
}

func TestPlates_SaveOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.dim.Place(vec.Vec3{X: 0, Y: 9, Z: 0}, BluePlateID)

	f.sched.Advance(6)
	require.NoError(t, f.store.Delete(context.Background(), storage.PortalDataKey))

	f.sched.Advance(6)
	_, found, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlates_LoadOnStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pos := vec.Vec3{X: 4, Y: 20, Z: -3}
	require.NoError(t, f.repo.Save(ctx, storage.Plates{"minecraft:the_end": {Orange: &pos}}))

	f.sched.Advance(19)
	assert.Empty(t, f.mod.Plates())

	f.sched.Advance(1)
	plates := f.mod.Plates()
	require.Contains(t, plates, "minecraft:the_end")
	assert.Equal(t, pos, *plates["minecraft:the_end"].Orange)
	assert.True(t, f.w.Recorder.Has(sim.KindBroadcast, "§a✔ Координаты порталов восстановлены"))
}

func TestPlates_CorruptedDataIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Set(ctx, storage.PortalDataKey, "{broken"))

	f.sched.Advance(20)
	assert.Empty(t, f.mod.Plates())
	assert.Empty(t, f.w.Recorder.Of(sim.KindBroadcast))

	f.dim.Place(vec.Vec3{X: 0, Y: 9, Z: 0}, BluePlateID)
	f.sched.Advance(6)
	assert.NotNil(t, f.mod.Plates()[sim.Overworld].Blue)
}

func TestCreeperScatter(t *testing.T) {
	f := newFixture(t)
	bystander := f.w.AddPlayer("Alex", f.dim, vec.Vec3Float{X: 30, Y: 10, Z: 0})
	creeper, err := f.dim.SpawnEntity(CreeperID, vec.Vec3Float{X: 2, Y: 10, Z: 0.5})
	require.NoError(t, err)

	start := f.p.Location()
	ev := &host.ExplosionEvent{Source: creeper, Dimension: f.dim}
	f.events.EmitExplosion(context.Background(), ev)

	f.sched.Advance(4)
	assert.Equal(t, start, f.p.Location())

	f.sched.Advance(1)
	got := f.p.Location()
	assert.NotEqual(t, start, got)
	dx, dy, dz := got.X-start.X, got.Y-start.Y, got.Z-start.Z
	assert.True(t, dx >= -5 && dx < 45, "dx=%v", dx)
	assert.True(t, dy >= -2 && dy < 3, "dy=%v", dy)
	assert.True(t, dz >= -5 && dz < 5, "dz=%v", dz)
	assert.Equal(t, vec.Vec3Float{X: 30, Y: 10, Z: 0}, bystander.Location())

	evs := f.bus.ofType(eventbus.TypeCreeperScatter)
	require.Len(t, evs, 1)
	var payload eventbus.CreeperScatter
	require.NoError(t, evs[0].Decode(&payload))
	assert.True(t, payload.Found)
	assert.Equal(t, 1, payload.Attempts)
	assert.Equal(t, f.p.ID(), payload.PlayerID)
}

func TestCreeperScatter_NoSafeSpot(t *testing.T) {
	f := newFixture(t)
	for x := -6; x <= 46; x++ {
		for y := 7; y <= 14; y++ {
			for z := -6; z <= 6; z++ {
				f.dim.Place(vec.Vec3{X: x, Y: y, Z: z}, sim.StoneBlock)
			}
		}
	}
	creeper, err := f.dim.SpawnEntity(CreeperID, vec.Vec3Float{X: 2, Y: 10, Z: 0.5})
	require.NoError(t, err)

	f.events.EmitExplosion(context.Background(), &host.ExplosionEvent{Source: creeper, Dimension: f.dim})
	f.sched.Advance(10)

	assert.Equal(t, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5}, f.p.Location())
	evs := f.bus.ofType(eventbus.TypeCreeperScatter)
	require.Len(t, evs, 1)
	var payload eventbus.CreeperScatter
	require.NoError(t, evs[0].Decode(&payload))
	assert.False(t, payload.Found)
	assert.Equal(t, 10, payload.Attempts)
}

func TestCreeperScatter_IgnoresOtherSources(t *testing.T) {
	f := newFixture(t)
	creeper, err := f.dim.SpawnEntity("minecraft:creeper", vec.Vec3Float{X: 2, Y: 10, Z: 0.5})
	require.NoError(t, err)

	f.events.EmitExplosion(context.Background(), &host.ExplosionEvent{Source: creeper, Dimension: f.dim})
	f.sched.Advance(10)
	assert.Empty(t, f.bus.ofType(eventbus.TypeCreeperScatter))
}

// plantOak ставит ствол из height блоков с веткой и листвой и берёзу рядом
func plantOak(d *sim.Dimension, height int) int {
	for y := 10; y < 10+height; y++ {
		d.Place(vec.Vec3{X: 0, Y: y, Z: 0}, sim.OakLog)
	}
	top := 10 + height - 1
	d.Place(vec.Vec3{X: 1, Y: top, Z: 0}, sim.OakLog)
	d.Place(vec.Vec3{X: 0, Y: top + 1, Z: 0}, sim.OakLeaves)
	d.Place(vec.Vec3{X: 0, Y: 9, Z: 0}, sim.DirtBlock)
	d.Place(vec.Vec3{X: 0, Y: 11, Z: 1}, sim.BirchLog)
	return height + 1
}

func (f *fixture) breakLog(item *host.ItemStack) {
	pos := vec.Vec3{X: 0, Y: 10, Z: 0}
	f.dim.Place(pos, host.AirID)
	f.events.EmitPlayerBreakBlock(context.Background(), &host.PlayerBreakBlockEvent{
		Player:    f.p,
		Dimension: f.dim,
		Pos:       pos,
		Broken:    voxel.Block{TypeID: sim.OakLog},
		Item:      item,
	})
}

func TestLumberAxe_FellsWholeTree(t *testing.T) {
	f := newFixture(t)
	logs := plantOak(f.dim, 5)
	axe := host.NewItem(AxeID)
	axe.MaxDurability = 100
	held := f.hold(axe)
	f.p.SetSneaking(true)

	f.breakLog(held)

	removed := logs - 1
	assert.Zero(t, f.dim.CountType(sim.OakLog))
	assert.Equal(t, 1, f.dim.CountType(sim.OakLeaves))
	assert.Equal(t, 1, f.dim.CountType(sim.BirchLog))
	assert.Len(t, f.dim.Items(), removed)
	assert.Equal(t, removed, f.p.Equipment(host.SlotMainhand).Damage)
	assert.True(t, f.w.Recorder.Has(sim.KindSound, "block.wood.break"))

	evs := f.bus.ofType(eventbus.TypeTreeFelled)
	require.Len(t, evs, 1)
	var payload eventbus.TreeFelled
	require.NoError(t, evs[0].Decode(&payload))
	assert.Equal(t, removed, payload.Removed)
	assert.False(t, payload.Truncated)
	assert.Len(t, payload.Blocks, removed)
	assert.Equal(t, float64(removed), testutil.ToFloat64(f.metrics.FelledTotal))
}

func TestLumberAxe_RequiresSneaking(t *testing.T) {
	f := newFixture(t)
	plantOak(f.dim, 4)
	held := f.hold(host.NewItem(AxeID))

	f.breakLog(held)
	assert.Equal(t, 4, f.dim.CountType(sim.OakLog))
	assert.Empty(t, f.bus.ofType(eventbus.TypeTreeFelled))
}

func TestLumberAxe_Limit(t *testing.T) {
	f := newFixture(t, func(c *config.BehaviorsConfig) { c.FellLimit = 2 })
	plantOak(f.dim, 6)
	held := f.hold(host.NewItem(AxeID))
	f.p.SetSneaking(true)

	f.breakLog(held)

	evs := f.bus.ofType(eventbus.TypeTreeFelled)
	require.Len(t, evs, 1)
	var payload eventbus.TreeFelled
	require.NoError(t, evs[0].Decode(&payload))
	assert.Equal(t, 2, payload.Removed)
	assert.True(t, payload.Truncated)
}

func TestLumberAxe_BreaksTool(t *testing.T) {
	f := newFixture(t)
	plantOak(f.dim, 5)
	axe := host.NewItem(AxeID)
	axe.MaxDurability = 3
	held := f.hold(axe)
	f.p.SetSneaking(true)

	f.breakLog(held)
	assert.Nil(t, f.p.Equipment(host.SlotMainhand))
	assert.True(t, f.w.Recorder.Has(sim.KindSound, host.BreakSound))
}

func TestLocator(t *testing.T) {
	f := newFixture(t)
	locator := f.hold(host.NewItem(LocatorID))
	f.p.SetLocation(vec.Vec3Float{X: 0.5, Y: 10.2, Z: 0.5})
	f.dim.Place(vec.Vec3{X: 3, Y: 10, Z: 0}, "minecraft:iron_ore")
	f.dim.Place(vec.Vec3{X: 0, Y: 10, Z: 5}, "minecraft:coal_ore")
	f.dim.Place(vec.Vec3{X: 1, Y: 10, Z: 0}, sim.StoneBlock)

	f.use(locator)
	assert.Contains(t, f.p.LastMessage(), "minecraft:iron_ore: 3 10 0")
	assert.True(t, f.w.Recorder.Has(sim.KindParticle, "minecraft:villager_happy"))

	f.use(locator)
	assert.Contains(t, f.p.LastMessage(), "перезаряжается")

	f.now = f.now.Add(2 * time.Second)
	f.dim.Place(vec.Vec3{X: 3, Y: 10, Z: 0}, host.AirID)
	f.dim.Place(vec.Vec3{X: 0, Y: 10, Z: 5}, host.AirID)
	f.use(locator)
	assert.Contains(t, f.p.LastMessage(), "не найдено")

	evs := f.bus.ofType(eventbus.TypeOreLocated)
	require.Len(t, evs, 2)
	var hit, miss eventbus.OreLocated
	require.NoError(t, evs[0].Decode(&hit))
	require.NoError(t, evs[1].Decode(&miss))
	assert.True(t, hit.Found)
	assert.Equal(t, &vec.Vec3{X: 3, Y: 10, Z: 0}, hit.Pos)
	assert.InDelta(t, 3.0, hit.Distance, 1e-9)
	assert.False(t, miss.Found)
	assert.Nil(t, miss.Pos)
}

func TestCameraCutscene(t *testing.T) {
	f := newFixture(t)
	camera := f.hold(host.NewItem(CameraID))

	f.use(camera)
	require.NotNil(t, f.p.Camera())
	first := f.p.Camera().Position

	// Повторное использование во время облёта игнорируется
	f.use(camera)

	f.sched.Advance(orbitWait)
	require.NotNil(t, f.p.Camera())
	assert.NotEqual(t, first, f.p.Camera().Position)

	f.sched.Advance(orbitWait * (orbitPoints - 1))
	assert.Nil(t, f.p.Camera())
	assert.Contains(t, f.p.LastMessage(), "Облёт завершён")
	assert.Len(t, f.w.Recorder.Of(sim.KindCamera), orbitPoints)

	evs := f.bus.ofType(eventbus.TypeCutsceneFinished)
	require.Len(t, evs, 1)
	var payload eventbus.CutsceneFinished
	require.NoError(t, evs[0].Decode(&payload))
	assert.Equal(t, orbitPoints, payload.Steps)
}

func TestCameraCutscene_AbortsOnLeave(t *testing.T) {
	f := newFixture(t)
	camera := f.hold(host.NewItem(CameraID))

	f.use(camera)
	f.events.EmitPlayerLeave(context.Background(), &host.PlayerLeaveEvent{PlayerID: f.p.ID()})
	f.sched.Advance(orbitWait * orbitPoints)

	assert.Empty(t, f.bus.ofType(eventbus.TypeCutsceneFinished))
	assert.Len(t, f.w.Recorder.Of(sim.KindCamera), 1)
}

func TestOrbitSteps(t *testing.T) {
	center := vec.Vec3Float{X: 0, Y: 64, Z: 0}
	steps := OrbitSteps(center, center.Add(vec.Vec3Float{Y: 1.62}))
	require.Len(t, steps, orbitPoints)
	for _, s := range steps {
		assert.InDelta(t, orbitRadius, vec.Vec3Float{X: s.Pose.Position.X, Z: s.Pose.Position.Z}.Length(), 1e-9)
		assert.Equal(t, center.Y+orbitHeight, s.Pose.Position.Y)
		assert.Equal(t, uint64(orbitWait), s.Wait)
	}
}

func TestPlayerLeave_RemovesSession(t *testing.T) {
	f := newFixture(t)
	f.sessions.Get(f.p.ID())

	f.events.EmitPlayerLeave(context.Background(), &host.PlayerLeaveEvent{PlayerID: f.p.ID()})
	_, ok := f.sessions.Lookup(f.p.ID())
	assert.False(t, ok)
}
