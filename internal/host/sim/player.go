package sim

import (
	"sync"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

// eyeHeight высота глаз игрока над ногами
const eyeHeight = 1.62

// Player игрок песочницы
type Player struct {
	*Entity

	pmu       sync.RWMutex
	name      string
	sneaking  bool
	mode      host.GameMode
	view      vec.Vec3Float
	equipment map[host.EquipmentSlot]*host.ItemStack
	inventory []*host.ItemStack
	cooldowns map[string]int
	messages  []string
	camera    *host.CameraPose
}

func newPlayer(w *World, id, name string, dim *Dimension, at vec.Vec3Float) *Player {
	p := &Player{
		Entity:    newEntity(w, id, host.PlayerType, dim, at),
		name:      name,
		mode:      host.Survival,
		view:      vec.Vec3Float{X: 0, Y: 0, Z: 1},
		equipment: make(map[host.EquipmentSlot]*host.ItemStack),
		cooldowns: make(map[string]int),
	}
	p.self = p
	return p
}

func (p *Player) Name() string { return p.name }

func (p *Player) Sneaking() bool {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	return p.sneaking
}

// SetSneaking включает или выключает приседание
func (p *Player) SetSneaking(v bool) {
	p.pmu.Lock()
	p.sneaking = v
	p.pmu.Unlock()
}

func (p *Player) GameMode() host.GameMode {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	return p.mode
}

// SetGameMode меняет режим игры
func (p *Player) SetGameMode(m host.GameMode) {
	p.pmu.Lock()
	p.mode = m
	p.pmu.Unlock()
}

func (p *Player) ViewDirection() vec.Vec3Float {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	return p.view
}

// SetViewDirection задаёт направление взгляда (нормализуется)
func (p *Player) SetViewDirection(v vec.Vec3Float) {
	p.pmu.Lock()
	p.view = v.Normalize()
	p.pmu.Unlock()
}

func (p *Player) HeadLocation() vec.Vec3Float {
	return p.Location().Add(vec.Vec3Float{Y: eyeHeight})
}

func (p *Player) Equipment(slot host.EquipmentSlot) *host.ItemStack {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	item := p.equipment[slot]
	if item == nil {
		return nil
	}
	cp := *item
	return &cp
}

func (p *Player) SetEquipment(slot host.EquipmentSlot, item *host.ItemStack) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	name := ""
	if item == nil {
		delete(p.equipment, slot)
	} else {
		cp := *item
		p.equipment[slot] = &cp
		name = item.TypeID
	}
	p.pmu.Unlock()
	p.world.Recorder.record(Effect{Kind: KindEquipment, Target: p.id, Name: name})
	return nil
}

// Equip надевает предмет без записи в журнал (для подготовки сцены)
func (p *Player) Equip(slot host.EquipmentSlot, item host.ItemStack) {
	p.pmu.Lock()
	p.equipment[slot] = &item
	p.pmu.Unlock()
}

func (p *Player) Inventory() []*host.ItemStack {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	out := make([]*host.ItemStack, len(p.inventory))
	for i, it := range p.inventory {
		if it != nil {
			cp := *it
			out[i] = &cp
		}
	}
	return out
}

// Give кладёт предмет в инвентарь
func (p *Player) Give(item host.ItemStack) {
	p.pmu.Lock()
	p.inventory = append(p.inventory, &item)
	p.pmu.Unlock()
}

func (p *Player) StartItemCooldown(category string, ticks int) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	p.cooldowns[category] = ticks
	p.pmu.Unlock()
	p.world.Recorder.record(Effect{Kind: KindCooldown, Target: p.id, Name: category, Value: float64(ticks)})
	return nil
}

// ItemCooldown длительность последнего кулдауна категории
func (p *Player) ItemCooldown(category string) (int, bool) {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	t, ok := p.cooldowns[category]
	return t, ok
}

func (p *Player) SendMessage(msg string) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	p.messages = append(p.messages, msg)
	p.pmu.Unlock()
	p.world.Recorder.record(Effect{Kind: KindMessage, Target: p.id, Name: msg})
	return nil
}

// Messages полученные сообщения
func (p *Player) Messages() []string {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	out := make([]string, len(p.messages))
	copy(out, p.messages)
	return out
}

// LastMessage последнее сообщение (пусто, если сообщений нет)
func (p *Player) LastMessage() string {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	if len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1]
}

func (p *Player) PlaySound(sound string, opts host.SoundOptions) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.world.Recorder.record(Effect{Kind: KindSound, Target: p.id, Name: sound, At: p.Location(), Value: opts.Pitch})
	return nil
}

func (p *Player) SetCamera(pose host.CameraPose) error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	p.camera = &pose
	p.pmu.Unlock()
	p.world.Recorder.record(Effect{Kind: KindCamera, Target: p.id, At: pose.Position})
	return nil
}

func (p *Player) ClearCamera() error {
	if !p.Valid() {
		return ErrInvalidEntity
	}
	p.pmu.Lock()
	p.camera = nil
	p.pmu.Unlock()
	p.world.Recorder.record(Effect{Kind: KindCameraClear, Target: p.id})
	return nil
}

// Camera текущая поза камеры (nil, если камера свободна)
func (p *Player) Camera() *host.CameraPose {
	p.pmu.RLock()
	defer p.pmu.RUnlock()
	return p.camera
}

// Remove выводит игрока из мира
func (p *Player) Remove() error {
	if !p.world.RemovePlayer(p.id) {
		return ErrInvalidEntity
	}
	p.world.Recorder.record(Effect{Kind: KindRemove, Target: p.id, Name: host.PlayerType})
	return nil
}
