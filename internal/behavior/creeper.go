package behavior

import (
	"context"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

const (
	scatterAttempts = 10
	scatterDelay    = 5
)

// scatterTarget случайная точка рядом с игроком. Смещение по X несимметрично.
func (m *Mod) scatterTarget(from vec.Vec3Float) vec.Vec3Float {
	return vec.Vec3Float{
		X: from.X + (m.random()*50 - 5),
		Y: from.Y + (m.random()*5 - 2),
		Z: from.Z + (m.random()*10 - 5),
	}
}

// onCreeperExplosion разбрасывает игроков рядом с неонитовым крипером перед взрывом
func (m *Mod) onCreeperExplosion(ctx context.Context, ev *host.ExplosionEvent) {
	src := ev.Source
	if src == nil || src.TypeID() != CreeperID {
		return
	}
	dim := ev.Dimension
	if dim == nil {
		dim = src.Dimension()
	}

	players := dim.Players(host.EntityQuery{Location: src.Location(), MaxDistance: float64(m.cfg.CreeperRadius)})
	for _, p := range players {
		payload := eventbus.CreeperScatter{CreeperID: src.ID(), PlayerID: p.ID()}

		for i := 0; i < scatterAttempts; i++ {
			payload.Attempts++
			target := m.scatterTarget(p.Location())
			cell := target.Floor()
			if !host.IsAir(dim, cell) || !host.IsAir(dim, cell.Up()) {
				continue
			}

			player := p
			m.sched.RunTimeout(scatterDelay, func() {
				if err := player.Teleport(target, player.Dimension()); err != nil {
					m.log.Debug("Разброс %s отменён: %v", player.Name(), err)
				}
			})
			payload.Found = true
			payload.Target = &target
			break
		}

		m.metrics.trigger(labelCreeper)
		m.publish(ctx, eventbus.TypeCreeperScatter, payload)
	}
}
