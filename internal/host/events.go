package host

import (
	"context"
	"sync"

	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/annel0/neonite-mod/internal/voxel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PlayerBreakBlockEvent игрок сломал блок (после события: блок уже пуст)
type PlayerBreakBlockEvent struct {
	Player    Player
	Dimension Dimension
	Pos       vec.Vec3
	Broken    voxel.Block
	Item      *ItemStack // предмет в руке на момент разрушения
}

// EntityHitEntityEvent сущность ударила другую
type EntityHitEntityEvent struct {
	Attacker Entity
	Target   Entity
}

// ItemUseEvent использование предмета (до события, можно отменить)
type ItemUseEvent struct {
	Source    Player
	Item      *ItemStack
	Cancelled bool
}

// EntityHurtEvent сущность получила урон
type EntityHurtEvent struct {
	Hurt     Entity
	Cause    string
	Damage   float64
	Attacker Entity
}

// ExplosionEvent взрыв (до события, можно отменить)
type ExplosionEvent struct {
	Source    Entity
	Dimension Dimension
	Cancelled bool
}

// ItemConsumeEvent предмет съеден или выпит
type ItemConsumeEvent struct {
	Source Player
	Item   *ItemStack
}

// ItemHitEntityEvent удар предметом по сущности
type ItemHitEntityEvent struct {
	Attacker Player
	Target   Entity
	Item     *ItemStack
}

// ItemMineBlockEvent блок добыт предметом
type ItemMineBlockEvent struct {
	Source Player
	Item   *ItemStack
	Pos    vec.Vec3
	Block  voxel.Block
}

// ItemDurabilityEvent движок собирается списать прочность; обработчик может изменить Damage
type ItemDurabilityEvent struct {
	Source Player
	Item   *ItemStack
	Damage int
}

// PlayerLeaveEvent игрок покинул мир
type PlayerLeaveEvent struct {
	PlayerID string
}

type handlerList[E any] struct {
	mu       sync.RWMutex
	handlers []func(ctx context.Context, ev *E)
}

func (l *handlerList[E]) add(h func(ctx context.Context, ev *E)) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

func (l *handlerList[E]) emit(ctx context.Context, tracer trace.Tracer, name string, ev *E) {
	l.mu.RLock()
	hs := make([]func(context.Context, *E), len(l.handlers))
	copy(hs, l.handlers)
	l.mu.RUnlock()

	ctx, span := tracer.Start(ctx, "event."+name, trace.WithAttributes(attribute.Int("handlers", len(hs))))
	defer span.End()

	for _, h := range hs {
		invoke(ctx, name, h, ev)
	}
}

// invoke вызывает обработчик; паника логируется и не мешает остальным
func invoke[E any](ctx context.Context, name string, h func(context.Context, *E), ev *E) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("❌ Паника в обработчике %s: %v", name, r)
		}
	}()
	h(ctx, ev)
}

// Events диспетчер событий движка. Обработчики вызываются синхронно в порядке подписки.
type Events struct {
	tracer trace.Tracer

	breakBlock     handlerList[PlayerBreakBlockEvent]
	hitEntity      handlerList[EntityHitEntityEvent]
	itemUse        handlerList[ItemUseEvent]
	entityHurt     handlerList[EntityHurtEvent]
	explosion      handlerList[ExplosionEvent]
	itemConsume    handlerList[ItemConsumeEvent]
	itemHitEntity  handlerList[ItemHitEntityEvent]
	itemMineBlock  handlerList[ItemMineBlockEvent]
	itemDurability handlerList[ItemDurabilityEvent]
	playerLeave    handlerList[PlayerLeaveEvent]
}

// NewEvents создаёт диспетчер; спаны уходят в глобальный TracerProvider
func NewEvents() *Events {
	return &Events{tracer: otel.Tracer("github.com/annel0/neonite-mod/internal/host")}
}

func (e *Events) OnPlayerBreakBlock(h func(context.Context, *PlayerBreakBlockEvent)) {
	e.breakBlock.add(h)
}
func (e *Events) OnEntityHitEntity(h func(context.Context, *EntityHitEntityEvent)) {
	e.hitEntity.add(h)
}
func (e *Events) OnItemUse(h func(context.Context, *ItemUseEvent))       { e.itemUse.add(h) }
func (e *Events) OnEntityHurt(h func(context.Context, *EntityHurtEvent)) { e.entityHurt.add(h) }
func (e *Events) OnExplosion(h func(context.Context, *ExplosionEvent))   { e.explosion.add(h) }
func (e *Events) OnItemConsume(h func(context.Context, *ItemConsumeEvent)) {
	e.itemConsume.add(h)
}
func (e *Events) OnItemHitEntity(h func(context.Context, *ItemHitEntityEvent)) {
	e.itemHitEntity.add(h)
}
func (e *Events) OnItemMineBlock(h func(context.Context, *ItemMineBlockEvent)) {
	e.itemMineBlock.add(h)
}
func (e *Events) OnItemDurability(h func(context.Context, *ItemDurabilityEvent)) {
	e.itemDurability.add(h)
}
func (e *Events) OnPlayerLeave(h func(context.Context, *PlayerLeaveEvent)) { e.playerLeave.add(h) }

func (e *Events) EmitPlayerBreakBlock(ctx context.Context, ev *PlayerBreakBlockEvent) {
	e.breakBlock.emit(ctx, e.tracer, "player_break_block", ev)
}
func (e *Events) EmitEntityHitEntity(ctx context.Context, ev *EntityHitEntityEvent) {
	e.hitEntity.emit(ctx, e.tracer, "entity_hit_entity", ev)
}
func (e *Events) EmitItemUse(ctx context.Context, ev *ItemUseEvent) {
	e.itemUse.emit(ctx, e.tracer, "item_use", ev)
}
func (e *Events) EmitEntityHurt(ctx context.Context, ev *EntityHurtEvent) {
	e.entityHurt.emit(ctx, e.tracer, "entity_hurt", ev)
}
func (e *Events) EmitExplosion(ctx context.Context, ev *ExplosionEvent) {
	e.explosion.emit(ctx, e.tracer, "explosion", ev)
}
func (e *Events) EmitItemConsume(ctx context.Context, ev *ItemConsumeEvent) {
	e.itemConsume.emit(ctx, e.tracer, "item_consume", ev)
}
func (e *Events) EmitItemHitEntity(ctx context.Context, ev *ItemHitEntityEvent) {
	e.itemHitEntity.emit(ctx, e.tracer, "item_hit_entity", ev)
}
func (e *Events) EmitItemMineBlock(ctx context.Context, ev *ItemMineBlockEvent) {
	e.itemMineBlock.emit(ctx, e.tracer, "item_mine_block", ev)
}
func (e *Events) EmitItemDurability(ctx context.Context, ev *ItemDurabilityEvent) {
	e.itemDurability.emit(ctx, e.tracer, "item_durability", ev)
}
func (e *Events) EmitPlayerLeave(ctx context.Context, ev *PlayerLeaveEvent) {
	e.playerLeave.emit(ctx, e.tracer, "player_leave", ev)
}
