// Package host описывает API игрового движка, с которым работает мод:
// мир, измерения, сущности, игроки и их события.
package host

import (
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/annel0/neonite-mod/internal/voxel"
)

// AirID пустой блок
const AirID = "minecraft:air"

// ItemEntityType тип сущности выпавшего предмета
const ItemEntityType = "minecraft:item"

// PlayerType тип сущности игрока
const PlayerType = "minecraft:player"

// GameMode режим игры
type GameMode string

const (
	Survival  GameMode = "survival"
	Creative  GameMode = "creative"
	Adventure GameMode = "adventure"
)

// EquipmentSlot слот экипировки
type EquipmentSlot string

const (
	SlotMainhand EquipmentSlot = "Mainhand"
	SlotOffhand  EquipmentSlot = "Offhand"
	SlotHead     EquipmentSlot = "Head"
	SlotChest    EquipmentSlot = "Chest"
	SlotLegs     EquipmentSlot = "Legs"
	SlotFeet     EquipmentSlot = "Feet"
)

// ItemStack стопка предметов
type ItemStack struct {
	TypeID        string `json:"type_id"`
	Amount        int    `json:"amount"`
	Damage        int    `json:"damage,omitempty"`
	MaxDurability int    `json:"max_durability,omitempty"`
	Unbreaking    int    `json:"unbreaking,omitempty"` // уровень зачарования «Прочность»
	Cooldown      string `json:"cooldown,omitempty"`   // категория кулдауна предмета
	CooldownTicks int    `json:"cooldown_ticks,omitempty"`
}

// NewItem создаёт стопку из одного предмета
func NewItem(typeID string) ItemStack {
	return ItemStack{TypeID: typeID, Amount: 1}
}

// DamageChance вероятность (0..1) списать прочность с учётом «Прочности»
func (s ItemStack) DamageChance() float64 {
	return 1.0 / float64(s.Unbreaking+1)
}

// EffectOptions параметры эффекта
type EffectOptions struct {
	Amplifier     int  `json:"amplifier"`
	ShowParticles bool `json:"show_particles"`
}

// SoundOptions параметры звука
type SoundOptions struct {
	Volume float64
	Pitch  float64
}

// DefaultSound громкость и высота по умолчанию
var DefaultSound = SoundOptions{Volume: 1, Pitch: 1}

// DamageSource источник урона
type DamageSource struct {
	Cause    string
	Attacker Entity
}

// EntityQuery фильтр выборки сущностей
type EntityQuery struct {
	Type        string
	Location    vec.Vec3Float
	MaxDistance float64 // 0: без ограничения
}

// Matches проверяет сущность по фильтру
func (q EntityQuery) Matches(e Entity) bool {
	if q.Type != "" && e.TypeID() != q.Type {
		return false
	}
	if q.MaxDistance > 0 && e.Location().DistanceTo(q.Location) > q.MaxDistance {
		return false
	}
	return true
}

// CameraPose положение камеры игрока
type CameraPose struct {
	Position vec.Vec3Float `json:"position"`
	Facing   vec.Vec3Float `json:"facing"`
	Ease     uint64        `json:"ease_ticks"`
}

// Entity сущность мира
type Entity interface {
	ID() string
	TypeID() string
	Valid() bool
	Location() vec.Vec3Float
	Dimension() Dimension

	AddEffect(effect string, duration int, opts EffectOptions) error
	RemoveEffect(effect string) error
	ApplyDamage(amount float64, src DamageSource) error
	ApplyImpulse(v vec.Vec3Float) error
	Teleport(to vec.Vec3Float, dim Dimension) error
	TriggerEvent(name string) error
	Remove() error
}

// Player игрок
type Player interface {
	Entity

	Name() string
	Sneaking() bool
	GameMode() GameMode
	ViewDirection() vec.Vec3Float
	HeadLocation() vec.Vec3Float

	Equipment(slot EquipmentSlot) *ItemStack
	SetEquipment(slot EquipmentSlot, item *ItemStack) error
	Inventory() []*ItemStack
	StartItemCooldown(category string, ticks int) error

	Health() (current, max float64)
	SetHealth(v float64) error

	SendMessage(msg string) error
	PlaySound(sound string, opts SoundOptions) error
	SetCamera(pose CameraPose) error
	ClearCamera() error
}

// ItemEntity выпавший предмет
type ItemEntity interface {
	Entity
	Item() ItemStack
}

// Projectile снаряд
type Projectile interface {
	Entity
	Shoot(velocity vec.Vec3Float, uncertainty float64) error
	SetOwner(owner Entity)
}

// Tameable приручаемая сущность
type Tameable interface {
	Entity
	Tame(owner Player) error
}

// Dimension измерение мира
type Dimension interface {
	ID() string
	Block(pos vec.Vec3) (voxel.Block, bool)
	SetBlock(pos vec.Vec3, typeID string) error
	SpawnItem(item ItemStack, at vec.Vec3Float) (Entity, error)
	SpawnEntity(typeID string, at vec.Vec3Float) (Entity, error)
	Entities(q EntityQuery) []Entity
	Players(q EntityQuery) []Player
	PlaySound(sound string, at vec.Vec3Float, opts SoundOptions) error
	SpawnParticle(particle string, at vec.Vec3Float) error
}

// World мир целиком
type World interface {
	Players() []Player
	Dimension(id string) (Dimension, bool)
	Broadcast(msg string) error
}

// IsAir проверяет, пуста ли ячейка
func IsAir(dim Dimension, pos vec.Vec3) bool {
	b, ok := dim.Block(pos)
	return !ok || b.TypeID == AirID
}
