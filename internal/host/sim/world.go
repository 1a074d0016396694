// Package sim реализует движок-песочницу в памяти: мир, измерения, игроков
// и сущности. Все воздействия мода записываются в журнал Recorder.
package sim

import (
	"fmt"
	"sync"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/annel0/neonite-mod/internal/voxel"
)

// Overworld идентификатор основного измерения
const Overworld = "minecraft:overworld"

// World мир песочницы
type World struct {
	mu       sync.RWMutex
	dims     map[string]*Dimension
	players  []*Player
	nextID   int
	Recorder *Recorder
}

// NewWorld создаёт мир с одним измерением Overworld
func NewWorld() *World {
	w := &World{
		dims:     make(map[string]*Dimension),
		Recorder: &Recorder{},
	}
	w.AddDimension(Overworld)
	return w
}

// AddDimension создаёт измерение (или возвращает существующее)
func (w *World) AddDimension(id string) *Dimension {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.dims[id]; ok {
		return d
	}
	d := &Dimension{
		world:  w,
		id:     id,
		blocks: make(map[vec.Vec3]string),
	}
	w.dims[id] = d
	return d
}

// Overworld возвращает основное измерение
func (w *World) Overworld() *Dimension {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dims[Overworld]
}

func (w *World) newID(prefix string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	return fmt.Sprintf("%s-%d", prefix, w.nextID)
}

// AddPlayer создаёт игрока в режиме выживания
func (w *World) AddPlayer(name string, dim *Dimension, at vec.Vec3Float) *Player {
	p := newPlayer(w, w.newID("player"), name, dim, at)
	w.mu.Lock()
	w.players = append(w.players, p)
	w.mu.Unlock()
	return p
}

// RemovePlayer убирает игрока из мира
func (w *World) RemovePlayer(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.players {
		if p.id == id {
			p.invalidate()
			w.players = append(w.players[:i], w.players[i+1:]...)
			return true
		}
	}
	return false
}

// Players возвращает всех игроков
func (w *World) Players() []host.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]host.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	return out
}

// Dimension ищет измерение по идентификатору
func (w *World) Dimension(id string) (host.Dimension, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dims[id]
	if !ok {
		return nil, false
	}
	return d, true
}

// Broadcast отправляет сообщение всем игрокам
func (w *World) Broadcast(msg string) error {
	w.Recorder.record(Effect{Kind: KindBroadcast, Name: msg})
	for _, p := range w.Players() {
		if err := p.SendMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

// Dimension измерение песочницы с разреженным хранением блоков
type Dimension struct {
	world *World
	id    string

	mu       sync.RWMutex
	blocks   map[vec.Vec3]string
	entities []host.Entity

	// FailSpawnItem, если задан, возвращается вместо создания предмета
	FailSpawnItem error
	// FailSetBlock, если задан, возвращается вместо изменения блока
	FailSetBlock error
}

func (d *Dimension) ID() string { return d.id }

func (d *Dimension) Block(pos vec.Vec3) (voxel.Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.blocks[pos]
	if !ok {
		return voxel.Block{}, false
	}
	return voxel.Block{TypeID: id}, true
}

// Place ставит блок без записи в журнал (для подготовки сцены)
func (d *Dimension) Place(pos vec.Vec3, typeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if typeID == host.AirID || typeID == "" {
		delete(d.blocks, pos)
		return
	}
	d.blocks[pos] = typeID
}

func (d *Dimension) SetBlock(pos vec.Vec3, typeID string) error {
	if d.FailSetBlock != nil {
		return d.FailSetBlock
	}
	d.Place(pos, typeID)
	d.world.Recorder.record(Effect{Kind: KindBlock, Target: d.id, Name: typeID, At: pos.ToFloat()})
	return nil
}

// BlockCount число непустых ячеек
func (d *Dimension) BlockCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.blocks)
}

// CountType число блоков указанного типа
func (d *Dimension) CountType(typeID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, id := range d.blocks {
		if id == typeID {
			n++
		}
	}
	return n
}

// SurfaceY высота самого верхнего блока в столбце (ok=false, если столбец пуст)
func (d *Dimension) SurfaceY(x, z int) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	top, found := 0, false
	for pos := range d.blocks {
		if pos.X == x && pos.Z == z && (!found || pos.Y > top) {
			top, found = pos.Y, true
		}
	}
	return top, found
}

func (d *Dimension) addEntity(e host.Entity) {
	d.mu.Lock()
	d.entities = append(d.entities, e)
	d.mu.Unlock()
}

func (d *Dimension) removeEntity(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.entities {
		if e.ID() == id {
			d.entities = append(d.entities[:i], d.entities[i+1:]...)
			return
		}
	}
}

func (d *Dimension) SpawnItem(item host.ItemStack, at vec.Vec3Float) (host.Entity, error) {
	if d.FailSpawnItem != nil {
		return nil, d.FailSpawnItem
	}
	if item.TypeID == "" {
		return nil, fmt.Errorf("sim: пустой тип предмета")
	}
	e := &Item{Entity: newEntity(d.world, d.world.newID("item"), host.ItemEntityType, d, at), item: item}
	e.self = e
	d.addEntity(e)
	d.world.Recorder.record(Effect{Kind: KindSpawn, Target: e.id, Name: item.TypeID, At: at})
	return e, nil
}

// Projectile-типы, которые песочница создаёт как снаряды
var projectileTypes = map[string]bool{
	"minecraft:snowball":       true,
	"minecraft:arrow":          true,
	"minecraft:egg":            true,
	"minecraft:ender_pearl":    true,
	"minecraft:wind_charge":    true,
	"minecraft:small_fireball": true,
}

// Tameable-типы песочницы
var tameableTypes = map[string]bool{
	"minecraft:wolf":   true,
	"minecraft:cat":    true,
	"minecraft:parrot": true,
	"minecraft:horse":  true,
}

func (d *Dimension) SpawnEntity(typeID string, at vec.Vec3Float) (host.Entity, error) {
	if typeID == "" {
		return nil, fmt.Errorf("sim: пустой тип сущности")
	}
	base := newEntity(d.world, d.world.newID("entity"), typeID, d, at)
	var e host.Entity
	switch {
	case projectileTypes[typeID]:
		p := &Projectile{Entity: base}
		p.self = p
		e = p
	case tameableTypes[typeID]:
		t := &Mob{Entity: base}
		t.self = t
		e = t
	default:
		base.self = base
		e = base
	}
	d.addEntity(e)
	d.world.Recorder.record(Effect{Kind: KindSpawn, Target: e.ID(), Name: typeID, At: at})
	return e, nil
}

func (d *Dimension) Entities(q host.EntityQuery) []host.Entity {
	d.mu.RLock()
	list := make([]host.Entity, len(d.entities))
	copy(list, d.entities)
	d.mu.RUnlock()

	var out []host.Entity
	for _, e := range list {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	for _, p := range d.players() {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dimension) players() []*Player {
	d.world.mu.RLock()
	defer d.world.mu.RUnlock()
	var out []*Player
	for _, p := range d.world.players {
		if p.dimension() == d {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dimension) Players(q host.EntityQuery) []host.Player {
	var out []host.Player
	for _, p := range d.players() {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Items возвращает выпавшие предметы в порядке появления
func (d *Dimension) Items() []*Item {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Item
	for _, e := range d.entities {
		if it, ok := e.(*Item); ok {
			out = append(out, it)
		}
	}
	return out
}

func (d *Dimension) PlaySound(sound string, at vec.Vec3Float, opts host.SoundOptions) error {
	d.world.Recorder.record(Effect{Kind: KindSound, Target: d.id, Name: sound, At: at, Value: opts.Pitch})
	return nil
}

func (d *Dimension) SpawnParticle(particle string, at vec.Vec3Float) error {
	d.world.Recorder.record(Effect{Kind: KindParticle, Target: d.id, Name: particle, At: at})
	return nil
}
