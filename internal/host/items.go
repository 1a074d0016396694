package host

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/neonite-mod/internal/vec"
)

// AllEffects все эффекты движка
var AllEffects = []string{
	"absorption", "bad_omen", "blindness", "conduit_power", "darkness",
	"fatal_poison", "fire_resistance", "haste", "health_boost", "hunger",
	"infested", "instant_damage", "instant_health", "invisibility", "mining_fatigue",
	"nausea", "night_vision", "poison", "raid_omen", "regeneration",
	"resistance", "saturation", "slow_falling", "slowness", "speed",
	"village_hero", "strength", "water_breathing", "weakness", "wither",
	"wind_charged",
}

// NegativeEffects эффекты, которые снимает очищающий предмет по умолчанию
var NegativeEffects = []string{
	"hunger", "darkness", "blindness", "fatal_poison", "mining_fatigue",
	"nausea", "poison", "slowness", "wither", "weakness",
}

// BreakSound звук поломки предмета
const BreakSound = "random.break"

// HasEquipment проверяет предмет в слоте
func HasEquipment(p Player, itemID string, slot EquipmentSlot) bool {
	item := p.Equipment(slot)
	return item != nil && item.TypeID == itemID
}

// HoldsItem проверяет предмет в основной руке
func HoldsItem(p Player, itemID string) bool {
	return HasEquipment(p, itemID, SlotMainhand)
}

// HasItem ищет предмет в инвентаре
func HasItem(p Player, itemID string) bool {
	for _, item := range p.Inventory() {
		if item != nil && item.TypeID == itemID {
			return true
		}
	}
	return false
}

// ClearMainhand очищает основную руку (кроме творческого режима)
func ClearMainhand(p Player) error {
	if p.GameMode() == Creative {
		return nil
	}
	return p.SetEquipment(SlotMainhand, nil)
}

// ConsumeMainhand уменьшает стопку в руке на один предмет
func ConsumeMainhand(p Player, item *ItemStack) error {
	if p.GameMode() == Creative {
		return nil
	}
	if item == nil || item.Amount <= 1 {
		return p.SetEquipment(SlotMainhand, nil)
	}
	next := *item
	next.Amount--
	return p.SetEquipment(SlotMainhand, &next)
}

// DamageMainhand списывает прочность предмета в руке. При достижении максимума
// предмет ломается со звуком breakSound и заменяется на replace (может быть nil).
// Возвращает true, если предмет сломался.
func DamageMainhand(p Player, item *ItemStack, amount int, breakSound string, replace *ItemStack) (bool, error) {
	if p.GameMode() == Creative || item == nil {
		return false, nil
	}
	if breakSound == "" {
		breakSound = BreakSound
	}

	next := *item
	next.Damage += amount
	if next.MaxDurability > 0 && next.Damage >= next.MaxDurability {
		if err := p.PlaySound(breakSound, DefaultSound); err != nil {
			return true, fmt.Errorf("звук поломки: %w", err)
		}
		return true, p.SetEquipment(SlotMainhand, replace)
	}
	return false, p.SetEquipment(SlotMainhand, &next)
}

// ShootOptions параметры выстрела
type ShootOptions struct {
	Source             Entity
	VelocityMultiplier float64
	Uncertainty        float64
}

// ShootProjectile создаёт снаряд и запускает его в направлении direction
func ShootProjectile(dim Dimension, projectileID string, at, direction vec.Vec3Float, opts ShootOptions) (Entity, error) {
	if opts.VelocityMultiplier == 0 {
		opts.VelocityMultiplier = 1
	}
	e, err := dim.SpawnEntity(projectileID, at)
	if err != nil {
		return nil, fmt.Errorf("создание снаряда %s: %w", projectileID, err)
	}
	proj, ok := e.(Projectile)
	if !ok {
		return e, nil
	}
	if err := proj.Shoot(direction.Scale(opts.VelocityMultiplier), opts.Uncertainty); err != nil {
		return e, fmt.Errorf("выстрел %s: %w", projectileID, err)
	}
	if opts.Source != nil {
		proj.SetOwner(opts.Source)
	}
	return e, nil
}

// SpreadDirection отклоняет направление на случайный угол до deg градусов по pitch и yaw
func SpreadDirection(dir vec.Vec3Float, deg float64, rnd *rand.Rand) vec.Vec3Float {
	if deg == 0 {
		return dir
	}
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	horiz := math.Sqrt(dir.X*dir.X + dir.Z*dir.Z)
	pitch := math.Atan2(dir.Y, horiz) + rad((rnd.Float64()*2-1)*deg)
	yaw := math.Atan2(dir.Z, dir.X) + rad((rnd.Float64()*2-1)*deg)
	cosP := math.Cos(pitch)
	return vec.Vec3Float{
		X: math.Cos(yaw) * cosP,
		Y: math.Sin(pitch),
		Z: math.Sin(yaw) * cosP,
	}
}

// SpawnAround создаёт count сущностей со случайным горизонтальным смещением до rng блоков
func SpawnAround(dim Dimension, center vec.Vec3Float, entityType string, count int, rng float64, rnd *rand.Rand) ([]Entity, error) {
	out := make([]Entity, 0, count)
	for i := 0; i < count; i++ {
		at := vec.Vec3Float{
			X: center.X + (rnd.Float64()*2-1)*rng,
			Y: center.Y,
			Z: center.Z + (rnd.Float64()*2-1)*rng,
		}
		e, err := dim.SpawnEntity(entityType, at)
		if err != nil {
			return out, fmt.Errorf("создание %s: %w", entityType, err)
		}
		out = append(out, e)
	}
	return out, nil
}
