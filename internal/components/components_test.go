package components

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/host/sim"
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScene(t *testing.T) (*sim.World, *sim.Player) {
	t.Helper()
	w := sim.NewWorld()
	p := w.AddPlayer("Steve", w.Overworld(), vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5})
	return w, p
}

func mustRegistry(t *testing.T, defs ...string) *Registry {
	t.Helper()
	r := NewRegistry(1)
	for _, raw := range defs {
		def, err := ParseDefinition([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, r.Load(def))
	}
	return r
}

func itemDef(id string, components string) string {
	return `{"format_version":"1.0","item":{"id":"` + id + `","components":` + components + `}}`
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(`{
		"format_version": "1.0",
		"item": {
			"id": "stellar:neonite_apple",
			"max_durability": 10,
			"cooldown": {"category": "neonite", "duration_ticks": 40},
			"components": {"eu:consume_effects": [{"name": "speed", "duration": 100}]}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "stellar:neonite_apple", def.ID)
	assert.Equal(t, []string{ConsumeEffects}, def.ComponentNames())

	stack := def.NewStack()
	assert.Equal(t, 10, stack.MaxDurability)
	assert.Equal(t, "neonite", stack.Cooldown)
	assert.Equal(t, 40, stack.CooldownTicks)
}

func TestParseDefinition_Invalid(t *testing.T) {
	cases := map[string]string{
		"Не JSON":                 `{`,
		"Нет пространства":        itemDef("apple", `{}`),
		"Эффект без длительности": itemDef("a:b", `{"eu:consume_effects":[{"name":"speed"}]}`),
		"Ноль снарядов":           itemDef("a:b", `{"stellar:shoot_projectile":{"count":0}}`),
		"Лишнее поле":             `{"format_version":"1","item":{"id":"a:b"},"extra":1}`,
		"Спавн без сущности":      itemDef("a:b", `{"eu:spawn_entity":{"count":2}}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(itemDef("stellar:a", `{}`)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(itemDef("stellar:b", `{"eu:generic_tool":{}}`)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0o644))

	defs, err := LoadDefinitions(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(itemDef("stellar:a", `{}`)), 0o644))
	_, err = LoadDefinitions(dir)
	assert.ErrorContains(t, err, "уже описан")
}

func TestLoadDefinitions_BundledAssets(t *testing.T) {
	defs, err := LoadDefinitions(filepath.Join("..", "..", "assets", "items"))
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	r := NewRegistry(1)
	require.NoError(t, r.Load(defs...))
	assert.Contains(t, r.Items(), "stellar:neonite_pickaxe")

	blaster, ok := r.Definition("stellar:neonite_blaster")
	require.True(t, ok)
	stack := blaster.NewStack()
	assert.Equal(t, 300, stack.MaxDurability)
	assert.Equal(t, "neonite_blaster", stack.Cooldown)
	assert.Equal(t, 20, stack.CooldownTicks)
}

func TestRegistry_UnknownComponent(t *testing.T) {
	r := NewRegistry(1)
	def := Definition{ID: "a:b", Components: map[string]json.RawMessage{"x:unknown": nil}}
	assert.ErrorContains(t, r.Load(def), "неизвестный компонент")

	assert.Error(t, r.Register(GenericTool, newUseModifiers), "Повторная регистрация запрещена")
	assert.Len(t, r.Components(), 9)
}

func TestConsumeEffects_Defaults(t *testing.T) {
	_, p := newScene(t)
	r := mustRegistry(t, itemDef("stellar:apple", `{"eu:consume_effects":[
		{"name":"speed","duration":100},
		{"name":"strength","duration":40,"amplifier":2,"showParticles":false}
	]}`))

	item := host.NewItem("stellar:apple")
	r.HandleConsume(context.Background(), &host.ItemConsumeEvent{Source: p, Item: &item})

	speed, ok := p.Effect("speed")
	require.True(t, ok)
	assert.Equal(t, 0, speed.Amplifier)
	assert.True(t, speed.ShowParticles, "Частицы включены по умолчанию")

	strength, ok := p.Effect("strength")
	require.True(t, ok)
	assert.Equal(t, 2, strength.Amplifier)
	assert.False(t, strength.ShowParticles)
}

func TestConsumeClearEffects_DefaultsToNegative(t *testing.T) {
	_, p := newScene(t)
	r := mustRegistry(t,
		itemDef("stellar:milk", `{"eu:consume_clear_effects":{}}`),
		itemDef("stellar:tea", `{"eu:consume_clear_effects":{"effects":["speed"]}}`),
	)
	require.NoError(t, p.AddEffect("poison", 100, host.EffectOptions{}))
	require.NoError(t, p.AddEffect("speed", 100, host.EffectOptions{}))

	milk := host.NewItem("stellar:milk")
	r.HandleConsume(context.Background(), &host.ItemConsumeEvent{Source: p, Item: &milk})
	_, hasPoison := p.Effect("poison")
	_, hasSpeed := p.Effect("speed")
	assert.False(t, hasPoison)
	assert.True(t, hasSpeed, "Положительные эффекты остаются")

	tea := host.NewItem("stellar:tea")
	r.HandleConsume(context.Background(), &host.ItemConsumeEvent{Source: p, Item: &tea})
	_, hasSpeed = p.Effect("speed")
	assert.False(t, hasSpeed)
}

func TestStartUseCooldown(t *testing.T) {
	_, p := newScene(t)
	r := mustRegistry(t, `{"format_version":"1.0","item":{"id":"stellar:wand",
		"cooldown":{"category":"wand","duration_ticks":30},
		"components":{"eu:start_use_cooldown":{}}}}`)

	def, ok := r.Definition("stellar:wand")
	require.True(t, ok)
	item := def.NewStack()
	r.HandleUse(context.Background(), &host.ItemUseEvent{Source: p, Item: &item})

	ticks, ok := p.ItemCooldown("wand")
	require.True(t, ok)
	assert.Equal(t, 30, ticks)
}

func TestDurabilityModifiers(t *testing.T) {
	w, p := newScene(t)
	r := mustRegistry(t, `{"format_version":"1.0","item":{"id":"stellar:charm","max_durability":2,
		"components":{"eu:durability_modifiers":{"damage":1,"replaceItem":"minecraft:stick"}}}}`)

	def, _ := r.Definition("stellar:charm")
	p.Equip(host.SlotMainhand, def.NewStack())

	use := func() {
		item := p.Equipment(host.SlotMainhand)
		r.HandleUse(context.Background(), &host.ItemUseEvent{Source: p, Item: item})
	}
	use()
	assert.Equal(t, 1, p.Equipment(host.SlotMainhand).Damage)
	use()
	assert.Equal(t, "minecraft:stick", p.Equipment(host.SlotMainhand).TypeID, "Сломанный предмет заменяется")
	assert.True(t, w.Recorder.Has(sim.KindSound, host.BreakSound))

	item := def.NewStack()
	dev := &host.ItemDurabilityEvent{Source: p, Item: &item, Damage: 3}
	r.HandleDurability(context.Background(), dev)
	assert.Zero(t, dev.Damage, "Штатный износ отключён")
}

func TestUseModifiers(t *testing.T) {
	w, p := newScene(t)
	r := mustRegistry(t, `{"format_version":"1.0","item":{"id":"stellar:bell",
		"cooldown":{"category":"bell","duration_ticks":20},
		"components":{"eu:use_modifiers":{"sound":"note.bell","particle":"minecraft:note_particle","hasCooldown":true}}}}`)

	def, _ := r.Definition("stellar:bell")
	item := def.NewStack()
	r.HandleUse(context.Background(), &host.ItemUseEvent{Source: p, Item: &item})

	assert.True(t, w.Recorder.Has(sim.KindSound, "note.bell"))
	assert.True(t, w.Recorder.Has(sim.KindParticle, "minecraft:note_particle"))
	_, ok := p.ItemCooldown("bell")
	assert.True(t, ok)
}

func TestShootProjectile(t *testing.T) {
	w, p := newScene(t)
	p.SetViewDirection(vec.Vec3Float{X: 1})
	r := mustRegistry(t, itemDef("stellar:blaster", `{"stellar:shoot_projectile":{"projectileId":"minecraft:arrow","count":3,"spread":5,"speed":2}}`))

	item := host.NewItem("stellar:blaster")
	r.HandleUse(context.Background(), &host.ItemUseEvent{Source: p, Item: &item})

	arrows := w.Overworld().Entities(host.EntityQuery{Type: "minecraft:arrow"})
	require.Len(t, arrows, 3)
	for _, a := range arrows {
		proj := a.(*sim.Projectile)
		assert.InDelta(t, 2.0, proj.Velocity().Length(), 1e-9)
		assert.Greater(t, proj.Velocity().X, 0.0)
		assert.Equal(t, p.ID(), proj.Owner().ID())
		assert.Greater(t, a.Location().X, p.Location().X, "Снаряд появляется перед игроком")
	}
}

func TestSpawnEntity_Tamed(t *testing.T) {
	w, p := newScene(t)
	r := mustRegistry(t, itemDef("stellar:whistle", `{"eu:spawn_entity":{"entity":"minecraft:wolf","count":2,"range":3,"isTamed":true,"spawnEvent":"minecraft:ageable_grow_up"}}`))

	item := host.NewItem("stellar:whistle")
	r.HandleUse(context.Background(), &host.ItemUseEvent{Source: p, Item: &item})

	wolves := w.Overworld().Entities(host.EntityQuery{Type: "minecraft:wolf"})
	require.Len(t, wolves, 2)
	for _, e := range wolves {
		assert.Equal(t, p.ID(), e.(*sim.Mob).TamedBy())
	}
	assert.Len(t, w.Recorder.Of(sim.KindTrigger), 2)
}

func TestOnDamage(t *testing.T) {
	w, p := newScene(t)
	zombie, err := w.Overworld().SpawnEntity("minecraft:zombie", vec.Vec3Float{X: 1})
	require.NoError(t, err)
	r := mustRegistry(t, itemDef("stellar:dagger", `{"eu:on_damage":{
		"target":{"addEffects":[{"name":"blindness","duration":60,"showParticles":false}]},
		"attacker":{"addEffects":[{"name":"speed","duration":20}]}
	}}`))

	item := host.NewItem("stellar:dagger")
	r.HandleHitEntity(context.Background(), &host.ItemHitEntityEvent{Attacker: p, Target: zombie, Item: &item})

	_, ok := zombie.(*sim.Entity).Effect("blindness")
	assert.True(t, ok)
	_, ok = p.Effect("speed")
	assert.True(t, ok)
}

func TestGenericTool(t *testing.T) {
	w, p := newScene(t)
	r := mustRegistry(t, `{"format_version":"1.0","item":{"id":"stellar:drill","max_durability":2,"components":{"eu:generic_tool":{}}}}`)
	def, _ := r.Definition("stellar:drill")
	p.Equip(host.SlotMainhand, def.NewStack())

	mine := func() {
		r.HandleMineBlock(context.Background(), &host.ItemMineBlockEvent{Source: p, Item: p.Equipment(host.SlotMainhand)})
	}
	mine()
	mine()
	require.NotNil(t, p.Equipment(host.SlotMainhand))
	assert.Equal(t, 2, p.Equipment(host.SlotMainhand).Damage)

	mine()
	assert.Nil(t, p.Equipment(host.SlotMainhand), "Изношенный инструмент ломается")
	assert.True(t, w.Recorder.Has(sim.KindSound, host.BreakSound))
}

func TestGenericTool_CreativeBypass(t *testing.T) {
	_, p := newScene(t)
	p.SetGameMode(host.Creative)
	r := mustRegistry(t, `{"format_version":"1.0","item":{"id":"stellar:drill","max_durability":2,"components":{"eu:generic_tool":{}}}}`)
	def, _ := r.Definition("stellar:drill")
	p.Equip(host.SlotMainhand, def.NewStack())

	r.HandleMineBlock(context.Background(), &host.ItemMineBlockEvent{Source: p, Item: p.Equipment(host.SlotMainhand)})
	assert.Zero(t, p.Equipment(host.SlotMainhand).Damage)
}

func TestRegistry_BindDispatchesEvents(t *testing.T) {
	_, p := newScene(t)
	r := mustRegistry(t, itemDef("stellar:apple", `{"eu:consume_effects":[{"name":"regeneration","duration":60}]}`))
	events := host.NewEvents()
	r.Bind(events)

	item := host.NewItem("stellar:apple")
	events.EmitItemConsume(context.Background(), &host.ItemConsumeEvent{Source: p, Item: &item})
	_, ok := p.Effect("regeneration")
	assert.True(t, ok)

	other := host.NewItem("minecraft:bread")
	assert.NotPanics(t, func() {
		events.EmitItemConsume(context.Background(), &host.ItemConsumeEvent{Source: p, Item: &other})
		events.EmitItemUse(context.Background(), &host.ItemUseEvent{Source: p})
	})
}
