package behavior

import (
	"context"
	"fmt"
	"strings"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/voxel"
)

func isOre(typeID string) bool { return strings.HasSuffix(typeID, "_ore") }

// onLocatorUse ищет ближайшую руду вокруг игрока
func (m *Mod) onLocatorUse(ctx context.Context, ev *host.ItemUseEvent) {
	if ev.Item == nil || ev.Item.TypeID != LocatorID {
		return
	}
	p := ev.Source

	left, ok := m.sessions.TryUse(p.ID(), cooldownLocator, ms(m.cfg.LocatorCooldownMs))
	if !ok {
		_ = p.SendMessage(fmt.Sprintf("§e⌛ Локатор перезаряжается: %.1fс", left.Seconds()))
		return
	}

	dim := p.Dimension()
	center := p.Location().Floor()
	match, found, err := voxel.FindNearest(host.Lookup(dim), center, m.cfg.LocatorRadius, isOre)
	if err != nil {
		m.log.Error("❌ Локатор: %v", err)
		return
	}

	payload := eventbus.OreLocated{PlayerID: p.ID(), Found: found, Radius: m.cfg.LocatorRadius}
	if !found {
		_ = p.SendMessage(fmt.Sprintf("§7Руды в радиусе %d блоков не найдено", m.cfg.LocatorRadius))
	} else {
		pos := match.Pos
		payload.Ore = match.Block.TypeID
		payload.Pos = &pos
		payload.Distance = match.Distance
		_ = p.SendMessage(fmt.Sprintf("§a⛏ %s: %d %d %d (%.1f бл.)", match.Block.TypeID, pos.X, pos.Y, pos.Z, match.Distance))
		_ = dim.SpawnParticle("minecraft:villager_happy", pos.Center())
	}

	m.metrics.trigger(labelLocator)
	m.publish(ctx, eventbus.TypeOreLocated, payload)
}
