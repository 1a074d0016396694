package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

// ErrInvalidEntity возвращается при обращении к удалённой сущности
var ErrInvalidEntity = errors.New("sim: entity is no longer valid")

// ActiveEffect наложенный эффект
type ActiveEffect struct {
	Duration      int
	Amplifier     int
	ShowParticles bool
}

// Entity базовая сущность песочницы
type Entity struct {
	world *World
	self  host.Entity

	mu        sync.RWMutex
	id        string
	typeID    string
	loc       vec.Vec3Float
	dim       *Dimension
	valid     bool
	effects   map[string]ActiveEffect
	health    float64
	maxHealth float64
	impulse   vec.Vec3Float
	events    []string
}

func newEntity(w *World, id, typeID string, dim *Dimension, at vec.Vec3Float) *Entity {
	return &Entity{
		world:     w,
		id:        id,
		typeID:    typeID,
		loc:       at,
		dim:       dim,
		valid:     true,
		effects:   make(map[string]ActiveEffect),
		health:    20,
		maxHealth: 20,
	}
}

func (e *Entity) ID() string     { return e.id }
func (e *Entity) TypeID() string { return e.typeID }

func (e *Entity) Valid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.valid
}

func (e *Entity) invalidate() {
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}

func (e *Entity) Location() vec.Vec3Float {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loc
}

// SetLocation перемещает сущность без записи в журнал
func (e *Entity) SetLocation(at vec.Vec3Float) {
	e.mu.Lock()
	e.loc = at
	e.mu.Unlock()
}

func (e *Entity) dimension() *Dimension {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dim
}

func (e *Entity) Dimension() host.Dimension {
	d := e.dimension()
	if d == nil {
		return nil
	}
	return d
}

func (e *Entity) AddEffect(effect string, duration int, opts host.EffectOptions) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	e.effects[effect] = ActiveEffect{Duration: duration, Amplifier: opts.Amplifier, ShowParticles: opts.ShowParticles}
	e.mu.Unlock()
	e.world.Recorder.record(Effect{Kind: KindEffectAdd, Target: e.id, Name: effect, Value: float64(duration)})
	return nil
}

func (e *Entity) RemoveEffect(effect string) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	_, had := e.effects[effect]
	delete(e.effects, effect)
	e.mu.Unlock()
	if had {
		e.world.Recorder.record(Effect{Kind: KindEffectRemove, Target: e.id, Name: effect})
	}
	return nil
}

// Effect возвращает наложенный эффект
func (e *Entity) Effect(name string) (ActiveEffect, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ef, ok := e.effects[name]
	return ef, ok
}

func (e *Entity) ApplyDamage(amount float64, src host.DamageSource) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	e.health -= amount
	if e.health < 0 {
		e.health = 0
	}
	e.mu.Unlock()
	e.world.Recorder.record(Effect{Kind: KindDamage, Target: e.id, Name: src.Cause, Value: amount})
	return nil
}

func (e *Entity) ApplyImpulse(v vec.Vec3Float) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	e.impulse = e.impulse.Add(v)
	e.mu.Unlock()
	e.world.Recorder.record(Effect{Kind: KindImpulse, Target: e.id, At: v})
	return nil
}

// Impulse суммарный полученный импульс
func (e *Entity) Impulse() vec.Vec3Float {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.impulse
}

func (e *Entity) Teleport(to vec.Vec3Float, dim host.Dimension) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	target := e.dimension()
	if dim != nil {
		nd, ok := dim.(*Dimension)
		if !ok {
			return fmt.Errorf("sim: чужое измерение %s", dim.ID())
		}
		target = nd
	}

	e.mu.Lock()
	prev := e.dim
	e.loc = to
	e.dim = target
	e.mu.Unlock()

	if _, isPlayer := e.self.(*Player); !isPlayer && prev != target {
		if prev != nil {
			prev.removeEntity(e.id)
		}
		target.addEntity(e.self)
	}
	e.world.Recorder.record(Effect{Kind: KindTeleport, Target: e.id, Name: target.id, At: to})
	return nil
}

func (e *Entity) TriggerEvent(name string) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	e.events = append(e.events, name)
	e.mu.Unlock()
	e.world.Recorder.record(Effect{Kind: KindTrigger, Target: e.id, Name: name})
	return nil
}

func (e *Entity) Remove() error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.invalidate()
	if d := e.dimension(); d != nil {
		d.removeEntity(e.id)
	}
	e.world.Recorder.record(Effect{Kind: KindRemove, Target: e.id, Name: e.typeID})
	return nil
}

// Health текущее и максимальное здоровье
func (e *Entity) Health() (float64, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.health, e.maxHealth
}

func (e *Entity) SetHealth(v float64) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	e.mu.Lock()
	if v > e.maxHealth {
		v = e.maxHealth
	}
	e.health = v
	e.mu.Unlock()
	e.world.Recorder.record(Effect{Kind: KindHealth, Target: e.id, Value: v})
	return nil
}

// Item выпавший предмет
type Item struct {
	*Entity
	item host.ItemStack
}

func (i *Item) Item() host.ItemStack { return i.item }

// Projectile снаряд песочницы
type Projectile struct {
	*Entity
	pmu         sync.Mutex
	velocity    vec.Vec3Float
	uncertainty float64
	owner       host.Entity
}

func (p *Projectile) Shoot(velocity vec.Vec3Float, uncertainty float64) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	p.velocity = velocity
	p.uncertainty = uncertainty
	p.pmu.Unlock()
	return nil
}

func (p *Projectile) SetOwner(owner host.Entity) {
	p.pmu.Lock()
	p.owner = owner
	p.pmu.Unlock()
}

// Velocity скорость, заданная выстрелом
func (p *Projectile) Velocity() vec.Vec3Float {
	p.pmu.Lock()
	defer p.pmu.Unlock()
	return p.velocity
}

// Owner владелец снаряда
func (p *Projectile) Owner() host.Entity {
	p.pmu.Lock()
	defer p.pmu.Unlock()
	return p.owner
}

// Mob приручаемое существо
type Mob struct {
	*Entity
	tamedBy string
}

func (m *Mob) Tame(owner host.Player) error {
	if !m.Valid() {
		return ErrInvalidEntity
	}
	m.mu.Lock()
	m.tamedBy = owner.ID()
	m.mu.Unlock()
	return nil
}

// TamedBy ID хозяина (пусто, если не приручено)
func (m *Mob) TamedBy() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tamedBy
}
