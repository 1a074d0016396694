package components

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

// Имена встроенных компонентов
const (
	ConsumeEffects      = "eu:consume_effects"
	ConsumeClearEffects = "eu:consume_clear_effects"
	StartUseCooldown    = "eu:start_use_cooldown"
	DurabilityModifiers = "eu:durability_modifiers"
	UseModifiers        = "eu:use_modifiers"
	ShootProjectile     = "stellar:shoot_projectile"
	SpawnEntity         = "eu:spawn_entity"
	OnDamage            = "eu:on_damage"
	GenericTool         = "eu:generic_tool"
)

// ErrNoCooldown предмет без категории кулдауна
var ErrNoCooldown = errors.New("у предмета нет кулдауна")

func registerBuiltins(r *Registry) {
	builtins := map[string]Factory{
		ConsumeEffects:      newConsumeEffects,
		ConsumeClearEffects: newConsumeClearEffects,
		StartUseCooldown:    func(json.RawMessage) (Instance, error) { return startUseCooldown{}, nil },
		DurabilityModifiers: newDurabilityModifiers,
		UseModifiers:        newUseModifiers,
		ShootProjectile:     newShootProjectile,
		SpawnEntity:         newSpawnEntity,
		OnDamage:            newOnDamage,
		GenericTool:         func(json.RawMessage) (Instance, error) { return genericTool{}, nil },
	}
	for name, f := range builtins {
		// Имена уникальны, ошибка невозможна
		_ = r.Register(name, f)
	}
}

// decodeParams разбирает параметры; пустые параметры оставляют значения по умолчанию
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	return json.Unmarshal(params, v)
}

// EffectSpec эффект из параметров компонента
type EffectSpec struct {
	Name          string `json:"name"`
	Duration      int    `json:"duration"`
	Amplifier     int    `json:"amplifier"`
	ShowParticles *bool  `json:"showParticles"`
}

func (e EffectSpec) options() host.EffectOptions {
	show := true
	if e.ShowParticles != nil {
		show = *e.ShowParticles
	}
	return host.EffectOptions{Amplifier: e.Amplifier, ShowParticles: show}
}

func applyEffects(target host.Entity, list []EffectSpec) error {
	var errs []error
	for _, e := range list {
		if err := target.AddEffect(e.Name, e.Duration, e.options()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

// eu:consume_effects

type consumeEffects struct {
	effects []EffectSpec
}

func newConsumeEffects(params json.RawMessage) (Instance, error) {
	c := consumeEffects{}
	if err := decodeParams(params, &c.effects); err != nil {
		return nil, err
	}
	return c, nil
}

func (c consumeEffects) OnConsume(hc HookContext, ev *host.ItemConsumeEvent) error {
	return applyEffects(ev.Source, c.effects)
}

// eu:consume_clear_effects

type consumeClearEffects struct {
	Effects []string `json:"effects"`
}

func newConsumeClearEffects(params json.RawMessage) (Instance, error) {
	c := consumeClearEffects{}
	if err := decodeParams(params, &c); err != nil {
		return nil, err
	}
	if len(c.Effects) == 0 {
		c.Effects = host.NegativeEffects
	}
	return c, nil
}

func (c consumeClearEffects) OnConsume(hc HookContext, ev *host.ItemConsumeEvent) error {
	var errs []error
	for _, name := range c.Effects {
		if err := ev.Source.RemoveEffect(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// eu:start_use_cooldown

type startUseCooldown struct{}

func startCooldown(p host.Player, item *host.ItemStack) error {
	if item == nil || item.Cooldown == "" {
		return ErrNoCooldown
	}
	return p.StartItemCooldown(item.Cooldown, item.CooldownTicks)
}

func (startUseCooldown) OnUse(hc HookContext, ev *host.ItemUseEvent) error {
	return startCooldown(ev.Source, ev.Item)
}

// eu:durability_modifiers

type durabilityModifiers struct {
	Damage      *int   `json:"damage"`
	BreakSound  string `json:"breakSound"`
	ReplaceItem string `json:"replaceItem"`
}

func newDurabilityModifiers(params json.RawMessage) (Instance, error) {
	d := durabilityModifiers{}
	if err := decodeParams(params, &d); err != nil {
		return nil, err
	}
	if d.Damage == nil {
		one := 1
		d.Damage = &one
	}
	if d.BreakSound == "" {
		d.BreakSound = host.BreakSound
	}
	return d, nil
}

func (d durabilityModifiers) OnUse(hc HookContext, ev *host.ItemUseEvent) error {
	var replace *host.ItemStack
	if d.ReplaceItem != "" {
		item := host.NewItem(d.ReplaceItem)
		replace = &item
	}
	_, err := host.DamageMainhand(ev.Source, ev.Item, *d.Damage, d.BreakSound, replace)
	return err
}

// OnBeforeDurabilityDamage отключает штатный износ: им управляет OnUse
func (d durabilityModifiers) OnBeforeDurabilityDamage(hc HookContext, ev *host.ItemDurabilityEvent) error {
	ev.Damage = 0
	return nil
}

// eu:use_modifiers

type useModifiers struct {
	Sound       string `json:"sound"`
	Particle    string `json:"particle"`
	HasCooldown bool   `json:"hasCooldown"`
}

func newUseModifiers(params json.RawMessage) (Instance, error) {
	u := useModifiers{}
	if err := decodeParams(params, &u); err != nil {
		return nil, err
	}
	return u, nil
}

func (u useModifiers) OnUse(hc HookContext, ev *host.ItemUseEvent) error {
	p := ev.Source
	dim := p.Dimension()
	if u.Sound != "" {
		if err := dim.PlaySound(u.Sound, p.Location(), host.DefaultSound); err != nil {
			return err
		}
	}
	if u.Particle != "" {
		if err := dim.SpawnParticle(u.Particle, p.Location()); err != nil {
			return err
		}
	}
	if u.HasCooldown {
		return startCooldown(p, ev.Item)
	}
	return nil
}

// stellar:shoot_projectile

type shootProjectile struct {
	ProjectileID   string  `json:"projectileId"`
	Speed          float64 `json:"speed"`
	Offset         float64 `json:"offset"`
	VerticalOffset float64 `json:"verticalOffset"`
	Count          int     `json:"count"`
	Spread         float64 `json:"spread"`
	Uncertainty    float64 `json:"uncertainty"`
}

func newShootProjectile(params json.RawMessage) (Instance, error) {
	s := shootProjectile{
		ProjectileID: "minecraft:snowball",
		Speed:        1.5,
		Offset:       0.6,
		Count:        1,
	}
	if err := decodeParams(params, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s shootProjectile) OnUse(hc HookContext, ev *host.ItemUseEvent) error {
	p := ev.Source
	head := p.HeadLocation()
	base := p.ViewDirection().Normalize()

	for i := 0; i < s.Count; i++ {
		dir := host.SpreadDirection(base, s.Spread, hc.Rand)
		at := vec.Vec3Float{
			X: head.X + dir.X*s.Offset,
			Y: head.Y + dir.Y*s.Offset + s.VerticalOffset,
			Z: head.Z + dir.Z*s.Offset,
		}
		if _, err := host.ShootProjectile(p.Dimension(), s.ProjectileID, at, dir, host.ShootOptions{
			Source:             p,
			VelocityMultiplier: s.Speed,
			Uncertainty:        s.Uncertainty,
		}); err != nil {
			return err
		}
	}
	return nil
}

// eu:spawn_entity

type spawnEntity struct {
	Entity     string  `json:"entity"`
	Count      int     `json:"count"`
	Range      float64 `json:"range"`
	IsTamed    bool    `json:"isTamed"`
	SpawnEvent string  `json:"spawnEvent"`
}

func newSpawnEntity(params json.RawMessage) (Instance, error) {
	s := spawnEntity{Count: 1}
	if err := decodeParams(params, &s); err != nil {
		return nil, err
	}
	if s.Entity == "" {
		return nil, fmt.Errorf("не задан entity")
	}
	return s, nil
}

func (s spawnEntity) OnUse(hc HookContext, ev *host.ItemUseEvent) error {
	p := ev.Source
	spawned, err := host.SpawnAround(p.Dimension(), p.Location(), s.Entity, s.Count, s.Range, hc.Rand)
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, e := range spawned {
		if s.SpawnEvent != "" {
			if err := e.TriggerEvent(s.SpawnEvent); err != nil {
				errs = append(errs, err)
			}
		}
		if s.IsTamed {
			t, ok := e.(host.Tameable)
			if !ok {
				errs = append(errs, fmt.Errorf("%s нельзя приручить", s.Entity))
				continue
			}
			if err := t.Tame(p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// eu:on_damage

type effectTarget struct {
	AddEffects []EffectSpec `json:"addEffects"`
}

type onDamage struct {
	Target   *effectTarget `json:"target"`
	Attacker *effectTarget `json:"attacker"`
}

func newOnDamage(params json.RawMessage) (Instance, error) {
	d := onDamage{}
	if err := decodeParams(params, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d onDamage) OnHitEntity(hc HookContext, ev *host.ItemHitEntityEvent) error {
	var errs []error
	if d.Target != nil && ev.Target != nil {
		errs = append(errs, applyEffects(ev.Target, d.Target.AddEffects))
	}
	if d.Attacker != nil && ev.Attacker != nil {
		errs = append(errs, applyEffects(ev.Attacker, d.Attacker.AddEffects))
	}
	return errors.Join(errs...)
}

// eu:generic_tool

type genericTool struct{}

// OnMineBlock списывает единицу прочности с шансом 1/(прочность+1).
// Инструмент, уже изношенный до максимума, ломается.
func (genericTool) OnMineBlock(hc HookContext, ev *host.ItemMineBlockEvent) error {
	p := ev.Source
	item := p.Equipment(host.SlotMainhand)
	if item == nil || p.GameMode() == host.Creative || item.MaxDurability == 0 {
		return nil
	}
	if hc.Rand.Float64() > item.DamageChance() {
		return nil
	}

	if item.Damage >= item.MaxDurability {
		if err := p.SetEquipment(host.SlotMainhand, nil); err != nil {
			return err
		}
		return p.PlaySound(host.BreakSound, host.DefaultSound)
	}
	item.Damage++
	return p.SetEquipment(host.SlotMainhand, item)
}
