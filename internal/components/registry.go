// Package components связывает предметы с переиспользуемыми компонентами поведения.
// Предмет описывается JSON-файлом; каждый компонент получает свои параметры
// и реагирует на события движка через хуки.
package components

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/logging"
)

// HookContext окружение вызова хука
type HookContext struct {
	Ctx  context.Context
	Rand *rand.Rand
}

// UseHook реагирует на использование предмета
type UseHook interface {
	OnUse(hc HookContext, ev *host.ItemUseEvent) error
}

// ConsumeHook реагирует на поедание/выпивание предмета
type ConsumeHook interface {
	OnConsume(hc HookContext, ev *host.ItemConsumeEvent) error
}

// HitEntityHook реагирует на удар предметом
type HitEntityHook interface {
	OnHitEntity(hc HookContext, ev *host.ItemHitEntityEvent) error
}

// MineBlockHook реагирует на добычу блока предметом
type MineBlockHook interface {
	OnMineBlock(hc HookContext, ev *host.ItemMineBlockEvent) error
}

// DurabilityHook может изменить списываемую движком прочность
type DurabilityHook interface {
	OnBeforeDurabilityDamage(hc HookContext, ev *host.ItemDurabilityEvent) error
}

// Instance компонент с разобранными параметрами. Реализует один или несколько хуков.
type Instance interface{}

// Factory создаёт экземпляр компонента из параметров описания предмета
type Factory func(params json.RawMessage) (Instance, error)

type boundComponent struct {
	name     string
	instance Instance
}

type boundItem struct {
	def        Definition
	components []boundComponent
}

// Registry хранит фабрики компонентов и описания предметов
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	items     map[string]*boundItem

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewRegistry создаёт реестр со встроенными компонентами
func NewRegistry(seed int64) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		items:     make(map[string]*boundItem),
		rnd:       rand.New(rand.NewSource(seed)),
	}
	registerBuiltins(r)
	return r
}

// Register добавляет фабрику компонента
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("компонент: пустое имя или фабрика")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("компонент %s уже зарегистрирован", name)
	}
	r.factories[name] = f
	return nil
}

// Components имена зарегистрированных компонентов
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load привязывает компоненты к предметам. Неизвестный компонент или
// некорректные параметры прерывают загрузку; уже загруженные предметы остаются.
func (r *Registry) Load(defs ...Definition) error {
	for _, def := range defs {
		item := &boundItem{def: def}
		for _, name := range def.ComponentNames() {
			r.mu.RLock()
			f, ok := r.factories[name]
			r.mu.RUnlock()
			if !ok {
				return fmt.Errorf("%s: неизвестный компонент %s", def.ID, name)
			}
			inst, err := f(def.Components[name])
			if err != nil {
				return fmt.Errorf("%s: параметры %s: %w", def.ID, name, err)
			}
			item.components = append(item.components, boundComponent{name: name, instance: inst})
		}

		r.mu.Lock()
		r.items[def.ID] = item
		r.mu.Unlock()
		logging.Debug("🧩 Предмет %s: компоненты %v", def.ID, def.ComponentNames())
	}
	return nil
}

// Definition описание предмета по идентификатору
func (r *Registry) Definition(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return Definition{}, false
	}
	return item.def, true
}

// Items идентификаторы загруженных предметов
func (r *Registry) Items() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) hookContext(ctx context.Context) HookContext {
	r.rndMu.Lock()
	seed := r.rnd.Int63()
	r.rndMu.Unlock()
	return HookContext{Ctx: ctx, Rand: rand.New(rand.NewSource(seed))}
}

func (r *Registry) componentsOf(item *host.ItemStack) []boundComponent {
	if item == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	bound, ok := r.items[item.TypeID]
	if !ok {
		return nil
	}
	return bound.components
}

// each вызывает call для каждого компонента предмета; ошибки логируются и не прерывают остальные
func (r *Registry) each(ctx context.Context, item *host.ItemStack, call func(hc HookContext, c boundComponent) error) {
	comps := r.componentsOf(item)
	if len(comps) == 0 {
		return
	}
	hc := r.hookContext(ctx)
	for _, c := range comps {
		if err := call(hc, c); err != nil {
			logging.Warn("⚠️ Компонент %s (%s): %v", c.name, item.TypeID, err)
		}
	}
}

// HandleUse вызывает UseHook компонентов предмета
func (r *Registry) HandleUse(ctx context.Context, ev *host.ItemUseEvent) {
	r.each(ctx, ev.Item, func(hc HookContext, c boundComponent) error {
		if h, ok := c.instance.(UseHook); ok {
			return h.OnUse(hc, ev)
		}
		return nil
	})
}

// HandleConsume вызывает ConsumeHook компонентов предмета
func (r *Registry) HandleConsume(ctx context.Context, ev *host.ItemConsumeEvent) {
	r.each(ctx, ev.Item, func(hc HookContext, c boundComponent) error {
		if h, ok := c.instance.(ConsumeHook); ok {
			return h.OnConsume(hc, ev)
		}
		return nil
	})
}

// HandleHitEntity вызывает HitEntityHook компонентов предмета
func (r *Registry) HandleHitEntity(ctx context.Context, ev *host.ItemHitEntityEvent) {
	r.each(ctx, ev.Item, func(hc HookContext, c boundComponent) error {
		if h, ok := c.instance.(HitEntityHook); ok {
			return h.OnHitEntity(hc, ev)
		}
		return nil
	})
}

// HandleMineBlock вызывает MineBlockHook компонентов предмета
func (r *Registry) HandleMineBlock(ctx context.Context, ev *host.ItemMineBlockEvent) {
	r.each(ctx, ev.Item, func(hc HookContext, c boundComponent) error {
		if h, ok := c.instance.(MineBlockHook); ok {
			return h.OnMineBlock(hc, ev)
		}
		return nil
	})
}

// HandleDurability вызывает DurabilityHook компонентов предмета
func (r *Registry) HandleDurability(ctx context.Context, ev *host.ItemDurabilityEvent) {
	r.each(ctx, ev.Item, func(hc HookContext, c boundComponent) error {
		if h, ok := c.instance.(DurabilityHook); ok {
			return h.OnBeforeDurabilityDamage(hc, ev)
		}
		return nil
	})
}

// Bind подписывает реестр на события движка
func (r *Registry) Bind(events *host.Events) {
	events.OnItemUse(r.HandleUse)
	events.OnItemConsume(r.HandleConsume)
	events.OnItemHitEntity(r.HandleHitEntity)
	events.OnItemMineBlock(r.HandleMineBlock)
	events.OnItemDurability(r.HandleDurability)
}
