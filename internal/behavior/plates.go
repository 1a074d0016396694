package behavior

import (
	"math"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/annel0/neonite-mod/internal/vec"
)

// Plates копия известных координат плит
func (m *Mod) Plates() storage.Plates {
	m.platesMu.RLock()
	defer m.platesMu.RUnlock()
	return m.plates.Clone()
}

// loadPlates восстанавливает координаты из хранилища. Ошибки не фатальны:
// мод продолжает работу с пустым набором.
func (m *Mod) loadPlates() {
	if m.repo == nil {
		return
	}
	plates, found, err := m.repo.Load(m.ctx)
	if err != nil {
		m.log.Error("❌ Ошибка загрузки координат плит: %v", err)
		plates = storage.Plates{}
	}

	m.platesMu.Lock()
	m.plates = plates
	m.platesMu.Unlock()

	if !found {
		return
	}
	m.log.Info("🌀 Координаты плит загружены: %d измерений", len(plates))
	if err := m.world.Broadcast("§a✔ Координаты порталов восстановлены"); err != nil {
		m.log.Warn("⚠️ Рассылка сообщения: %v", err)
	}
}

func (m *Mod) savePlates(plates storage.Plates) {
	if m.repo == nil {
		return
	}
	if err := m.repo.Save(m.ctx, plates); err != nil {
		m.log.Error("❌ Ошибка сохранения координат плит: %v", err)
	}
}

// recordPlate запоминает плиту и возвращает копию записей, если что-то изменилось
func (m *Mod) recordPlate(dimID, plateID string, pos vec.Vec3) (storage.PlateRecord, storage.Plates, bool) {
	m.platesMu.Lock()
	defer m.platesMu.Unlock()

	rec := m.plates[dimID]
	slot := &rec.Blue
	if plateID == OrangePlateID {
		slot = &rec.Orange
	}
	if *slot != nil && (*slot).Equals(pos) {
		return rec, nil, false
	}
	p := pos
	*slot = &p
	m.plates[dimID] = rec
	return rec, m.plates.Clone(), true
}

// pollPlates проверяет блок под ногами каждого игрока
func (m *Mod) pollPlates() {
	for _, p := range m.world.Players() {
		if !p.Valid() {
			continue
		}
		dim := p.Dimension()
		if dim == nil {
			continue
		}
		loc := p.Location()
		under := vec.Vec3{
			X: int(math.Floor(loc.X)),
			Y: int(math.Floor(loc.Y - 0.5)),
			Z: int(math.Floor(loc.Z)),
		}
		b, ok := dim.Block(under)
		if !ok || (b.TypeID != BluePlateID && b.TypeID != OrangePlateID) {
			continue
		}

		rec, snapshot, changed := m.recordPlate(dim.ID(), b.TypeID, under)
		if changed {
			m.savePlates(snapshot)
		}

		target := rec.Orange
		if b.TypeID == OrangePlateID {
			target = rec.Blue
		}
		if target == nil {
			continue
		}
		if _, ok := m.sessions.TryUse(p.ID(), cooldownPlate, ms(m.cfg.PlateCooldownMs)); !ok {
			continue
		}
		m.teleport(p, dim, b.TypeID, under, *target)
	}
}

// teleport переносит игрока на плиту target
func (m *Mod) teleport(p host.Player, dim host.Dimension, plateID string, from, target vec.Vec3) {
	to := vec.Vec3Float{X: float64(target.X) + 0.5, Y: float64(target.Y) + 1, Z: float64(target.Z) + 0.5}
	at := p.Location()

	_ = dim.SpawnParticle("minecraft:portal_reverse_particle", at.Add(vec.Vec3Float{Y: 1}))
	_ = dim.PlaySound("mob.enderman.portal", at, sound(1.5))
	if err := p.Teleport(to, dim); err != nil {
		m.log.Warn("⚠️ Телепорт %s не удался: %v", p.Name(), err)
		return
	}
	_ = dim.SpawnParticle("minecraft:portal_reverse_particle", to)

	m.metrics.trigger(labelPlate)
	m.metrics.Teleports.Inc()
	m.publish(m.ctx, eventbus.TypePlateTeleport, eventbus.PlateTeleport{
		PlayerID:  p.ID(),
		Dimension: dim.ID(),
		Plate:     plateID,
		From:      from,
		To:        to,
	})
}
