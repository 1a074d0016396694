package behavior

import (
	"context"
	"math"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/session"
	"github.com/annel0/neonite-mod/internal/vec"
)

const levitation = "levitation"

// HasFullArmor проверяет полный комплект неонитовой брони
func HasFullArmor(p host.Player) bool {
	return host.HasEquipment(p, HelmetID, host.SlotHead) &&
		host.HasEquipment(p, ChestplateID, host.SlotChest) &&
		host.HasEquipment(p, LeggingsID, host.SlotLegs) &&
		host.HasEquipment(p, BootsID, host.SlotFeet)
}

// applyArmorEffects продлевает эффекты комплекта. Ночное зрение длиннее
// остальных, чтобы экран не мигал при обновлении.
func applyArmorEffects(p host.Player) {
	_ = p.AddEffect("strength", 40, noParticles(3))
	_ = p.AddEffect("resistance", 40, noParticles(3))
	_ = p.AddEffect("regeneration", 40, noParticles(2))
	_ = p.AddEffect("speed", 40, noParticles(2))
	_ = p.AddEffect("night_vision", 220, noParticles(0))
}

// pollArmor периодический опрос брони всех игроков
func (m *Mod) pollArmor() {
	flying := 0
	for _, p := range m.world.Players() {
		if !p.Valid() {
			continue
		}
		rec := m.sessions.Get(p.ID())
		if m.updateArmor(p, rec) == session.Flying {
			flying++
		}
	}
	m.metrics.Flying.Set(float64(flying))
}

func (m *Mod) updateArmor(p host.Player, rec *session.Record) session.FlightState {
	if !HasFullArmor(p) {
		_ = p.RemoveEffect(levitation)
		rec.ResetFlight()
		return session.Grounded
	}

	applyArmorEffects(p)

	tr := rec.AdvanceFlight(p.Sneaking(), m.cfg.PrechargePolls)
	state := rec.Flight()
	if state != session.Grounded {
		_ = p.AddEffect(levitation, 10, noParticles(1))
	}

	dim := p.Dimension()
	at := p.Location()
	switch tr {
	case session.TransitionTakeoff:
		_ = dim.SpawnParticle("minecraft:endrod", at.Add(vec.Vec3Float{Y: -0.5}))
		_ = dim.SpawnParticle("minecraft:enchanting_table_particle", at.Add(vec.Vec3Float{Y: -0.2}))
		_ = dim.PlaySound("mob.enderdragon.flap", at, sound(1.2))
	case session.TransitionLand:
		m.sched.RunTimeout(1, func() {
			_ = dim.SpawnParticle("minecraft:sonic_explosion_emitter", at)
			_ = dim.PlaySound("random.explode", at, sound(1.5))
		})
		_ = p.RemoveEffect(levitation)
	case session.TransitionCancel:
		_ = p.RemoveEffect(levitation)
	}

	if tr != session.TransitionNone {
		m.metrics.trigger(labelFlight)
		m.publish(m.ctx, eventbus.TypeFlightChanged, eventbus.FlightChanged{
			PlayerID:   p.ID(),
			State:      state.String(),
			Transition: tr.String(),
		})
	}
	return state
}

// onFallDamage возвращает здоровье, снятое падением, если на игроке полный комплект
func (m *Mod) onFallDamage(_ context.Context, ev *host.EntityHurtEvent) {
	if ev.Hurt == nil || ev.Hurt.TypeID() != host.PlayerType || ev.Cause != "fall" {
		return
	}
	p, ok := ev.Hurt.(host.Player)
	if !ok || !HasFullArmor(p) {
		return
	}

	cur, max := p.Health()
	if err := p.SetHealth(math.Min(cur+ev.Damage, max)); err != nil {
		m.log.Warn("⚠️ Здоровье %s не восстановлено: %v", p.Name(), err)
		return
	}
	_ = p.Dimension().SpawnParticle("minecraft:sonic_explosion_emitter", p.Location())
	m.metrics.trigger(labelFallGuard)
}
