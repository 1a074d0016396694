package behavior

import (
	"context"
	"strings"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/voxel"
)

var woodSuffixes = []string{"_log", "_wood", "_stem", "_hyphae"}

// WoodFamily возвращает породу дерева ("minecraft:oak" для "minecraft:stripped_oak_log")
// и false, если блок не является стволом.
func WoodFamily(typeID string) (string, bool) {
	ns, name, ok := strings.Cut(typeID, ":")
	if !ok {
		ns, name = "", typeID
	}
	name = strings.TrimPrefix(name, "stripped_")
	for _, suffix := range woodSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && base != "" {
			if ns == "" {
				return base, true
			}
			return ns + ":" + base, true
		}
	}
	return "", false
}

// sameWood предикат блоков той же породы
func sameWood(family string) voxel.TypePredicate {
	return func(typeID string) bool {
		f, ok := WoodFamily(typeID)
		return ok && f == family
	}
}

// onFell валит дерево целиком, если игрок сломал ствол топором, сидя на корточках
func (m *Mod) onFell(ctx context.Context, ev *host.PlayerBreakBlockEvent) {
	if ev.Item == nil || ev.Item.TypeID != AxeID || !ev.Player.Sneaking() {
		return
	}
	family, ok := WoodFamily(ev.Broken.TypeID)
	if !ok {
		return
	}

	feller, err := voxel.NewFeller(host.Lookup(ev.Dimension), sameWood(family))
	if err != nil {
		m.log.Error("❌ Валка дерева: %v", err)
		return
	}
	feller.Limit = m.cfg.FellLimit

	// Сломанная ячейка уже пуста, обход начинается с её соседей
	for _, off := range voxel.TreeOffsets {
		feller.Fell(ev.Pos.Add(off))
	}
	report := feller.Report()
	removed := len(report.Removed)

	for _, e := range report.ClearFailures {
		m.log.Warn("⚠️ Блок не удалён: %v", e)
	}
	if removed == 0 {
		return
	}

	if _, err := host.DamageMainhand(ev.Player, ev.Item, removed, "", nil); err != nil {
		m.log.Warn("⚠️ Прочность топора: %v", err)
	}
	at := ev.Pos.Center()
	_ = ev.Dimension.PlaySound("block.wood.break", at, host.DefaultSound)
	_ = ev.Dimension.SpawnParticle("minecraft:villager_happy", at)

	m.metrics.trigger(labelFell)
	m.metrics.FelledTotal.Add(float64(removed))
	m.metrics.FellSize.Observe(float64(removed))
	m.log.Debug("🪓 %s срубил %d блоков %s", ev.Player.Name(), removed, family)

	m.publish(ctx, eventbus.TypeTreeFelled, eventbus.TreeFelled{
		PlayerID:     ev.Player.ID(),
		Dimension:    ev.Dimension.ID(),
		Origin:       ev.Pos,
		Removed:      removed,
		Visited:      report.Visited,
		DropFailures: len(report.DropFailures),
		Truncated:    report.Truncated,
		Blocks:       report.Removed,
	})
}
