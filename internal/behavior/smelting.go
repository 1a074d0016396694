package behavior

import (
	"context"
	"strings"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/vec"
)

// smeltable руды, которые кирка переплавляет
var smeltable = map[string]bool{
	"minecraft:iron_ore":             true,
	"minecraft:deepslate_iron_ore":   true,
	"minecraft:gold_ore":             true,
	"minecraft:deepslate_gold_ore":   true,
	"minecraft:copper_ore":           true,
	"minecraft:deepslate_copper_ore": true,
}

// smeltRadius радиус сбора выпавших предметов вокруг блока
const smeltRadius = 1.5

// ParseOre переводит руду в сырьё, а сырьё в слиток:
// ns:(deepslate_)?X_ore -> ns:raw_X, ns:raw_X -> ns:X_ingot.
// Идентификатор без пространства имён возвращается как есть, остальное даёт "unknown".
func ParseOre(id string) string {
	parts := strings.Split(id, ":")
	if len(parts) < 2 || parts[1] == "" {
		return id
	}
	ns, name := parts[0], parts[1]

	if base, ok := strings.CutSuffix(name, "_ore"); ok && base != "" {
		if rest, ok := strings.CutPrefix(base, "deepslate_"); ok && rest != "" {
			base = rest
		}
		return ns + ":raw_" + base
	}
	if base, ok := strings.CutPrefix(name, "raw_"); ok {
		return ns + ":" + base + "_ingot"
	}
	return "unknown"
}

func (m *Mod) onSmelt(ctx context.Context, ev *host.PlayerBreakBlockEvent) {
	if ev.Item == nil || ev.Item.TypeID != PickaxeID {
		return
	}
	if !smeltable[ev.Broken.TypeID] {
		return
	}

	dim := ev.Dimension
	want := ParseOre(ev.Broken.TypeID)
	ingot := ""
	count := 0

	drops := dim.Entities(host.EntityQuery{
		Type:        host.ItemEntityType,
		Location:    ev.Pos.ToFloat(),
		MaxDistance: smeltRadius,
	})
	for _, e := range drops {
		drop, ok := e.(host.ItemEntity)
		if !ok || drop.Item().TypeID != want {
			continue
		}
		ingot = ParseOre(want)
		stack := host.NewItem(ingot)
		stack.Amount = drop.Item().Amount
		if _, err := dim.SpawnItem(stack, drop.Location()); err != nil {
			m.log.Warn("⚠️ Слиток %s не создан: %v", ingot, err)
			continue
		}
		if err := drop.Remove(); err != nil {
			m.log.Debug("Предмет %s уже удалён: %v", drop.ID(), err)
		}
		count++
	}

	at := ev.Pos.ToFloat()
	m.sched.RunTimeout(2, func() {
		_ = dim.SpawnParticle("minecraft:endrod", at.Add(vec.Vec3Float{Y: 1}))
		_ = dim.SpawnParticle("minecraft:enchanting_table_particle", at.Add(vec.Vec3Float{Y: 0.5}))
		_ = dim.PlaySound("random.anvil_use", at, sound(1.2))
	})

	m.metrics.trigger(labelSmelt)
	if count == 0 {
		return
	}
	m.metrics.Smelted.Add(float64(count))
	m.publish(ctx, eventbus.TypeOreSmelted, eventbus.OreSmelted{
		PlayerID: ev.Player.ID(),
		Ore:      ev.Broken.TypeID,
		Ingot:    ingot,
		Count:    count,
		Pos:      ev.Pos,
	})
}
