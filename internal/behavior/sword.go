package behavior

import (
	"context"
	"fmt"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

const (
	dashForce    = 2.5
	dashLift     = 0.3
	dashRadius   = 3
	dashDamage   = 10
	dashFxDelay  = 2
	dashHitDelay = 8
)

func (m *Mod) onSwordHit(_ context.Context, ev *host.EntityHitEntityEvent) {
	p, ok := ev.Attacker.(host.Player)
	if !ok || !host.HoldsItem(p, SwordID) {
		return
	}
	_ = p.AddEffect("strength", 40, noParticles(3))
	_ = p.AddEffect("speed", 40, noParticles(2))
	m.metrics.trigger(labelSwordHit)
}

func (m *Mod) onSwordUse(ctx context.Context, ev *host.ItemUseEvent) {
	if ev.Item == nil || ev.Item.TypeID != SwordID {
		return
	}
	p := ev.Source

	left, ok := m.sessions.TryUse(p.ID(), cooldownDash, ms(m.cfg.SwordCooldownMs))
	if !ok {
		_ = p.SendMessage(fmt.Sprintf("§c⚠ Спецатака будет доступна через %.1fс", left.Seconds()))
		return
	}

	dim := p.Dimension()
	at := p.Location()
	m.sched.RunTimeout(dashFxDelay, func() {
		if !p.Valid() {
			return
		}
		_ = dim.SpawnParticle("minecraft:endrod", at.Add(vec.Vec3Float{Y: 1}))
		_ = dim.SpawnParticle("minecraft:sonic_explosion_emitter", at.Add(vec.Vec3Float{Y: 1}))
		_ = dim.PlaySound("mob.enderdragon.flap", at, sound(1.3))
	})

	m.sched.RunTimeout(dashHitDelay, func() {
		if !p.Valid() {
			return
		}
		m.dash(ctx, p)
	})
	m.metrics.trigger(labelDash)
}

// dash наносит урон вокруг игрока и толкает его по направлению взгляда
func (m *Mod) dash(ctx context.Context, p host.Player) {
	hit := 0
	targets := p.Dimension().Entities(host.EntityQuery{Location: p.Location(), MaxDistance: dashRadius})
	for _, e := range targets {
		if e.ID() == p.ID() || e.TypeID() == host.ItemEntityType {
			continue
		}
		if err := e.ApplyDamage(dashDamage, host.DamageSource{Cause: "entityAttack", Attacker: p}); err != nil {
			m.log.Debug("Урон по %s не прошёл: %v", e.ID(), err)
			continue
		}
		hit++
	}

	dir := p.ViewDirection()
	impulse := vec.Vec3Float{X: dir.X * dashForce, Y: dir.Y * dashForce * dashLift, Z: dir.Z * dashForce}
	if err := p.ApplyImpulse(impulse); err != nil {
		m.log.Warn("⚠️ Рывок %s: %v", p.Name(), err)
	}
	_ = p.AddEffect("strength", 60, noParticles(2))
	_ = p.AddEffect("speed", 60, noParticles(2))
	_ = p.SendMessage("§b⚡ Спецатака активирована!")

	m.publish(ctx, eventbus.TypeDashActivated, eventbus.DashActivated{
		PlayerID: p.ID(),
		Impulse:  impulse,
		Hit:      hit,
	})
}
