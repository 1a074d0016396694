package voxel

import (
	"fmt"
	"sync"

	"github.com/annel0/neonite-mod/internal/vec"
)

// Drop запись о выпавшем предмете
type Drop struct {
	TypeID string
	At     vec.Vec3Float
}

// MapGrid разреженная сетка в памяти. Реализует BlockLookup.
type MapGrid struct {
	mu     sync.RWMutex
	blocks map[vec.Vec3]string
	drops  []Drop

	// FailDrop, если задан, позволяет отклонить дроп (проверка ошибок)
	FailDrop func(typeID string) error
}

// NewMapGrid создаёт пустую сетку
func NewMapGrid() *MapGrid {
	return &MapGrid{blocks: make(map[vec.Vec3]string)}
}

// Set устанавливает тип блока; пустая строка очищает ячейку
func (g *MapGrid) Set(pos vec.Vec3, typeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if typeID == "" {
		delete(g.blocks, pos)
		return
	}
	g.blocks[pos] = typeID
}

// Block возвращает блок в ячейке
func (g *MapGrid) Block(pos vec.Vec3) (Block, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.blocks[pos]
	if !ok {
		return Block{}, false
	}
	return Block{TypeID: id}, true
}

// SetEmpty очищает ячейку
func (g *MapGrid) SetEmpty(pos vec.Vec3) error {
	g.Set(pos, "")
	return nil
}

// SpawnDrop записывает дроп
func (g *MapGrid) SpawnDrop(typeID string, at vec.Vec3Float) error {
	if typeID == "" {
		return fmt.Errorf("empty item id")
	}
	if g.FailDrop != nil {
		if err := g.FailDrop(typeID); err != nil {
			return err
		}
	}
	g.mu.Lock()
	g.drops = append(g.drops, Drop{TypeID: typeID, At: at})
	g.mu.Unlock()
	return nil
}

// Drops возвращает копию списка дропов
func (g *MapGrid) Drops() []Drop {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Drop, len(g.drops))
	copy(out, g.drops)
	return out
}

// Len количество непустых ячеек
func (g *MapGrid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.blocks)
}
