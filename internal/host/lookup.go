package host

import (
	"github.com/annel0/neonite-mod/internal/vec"
	"github.com/annel0/neonite-mod/internal/voxel"
)

// dimensionLookup адаптирует Dimension к voxel.BlockLookup
type dimensionLookup struct {
	dim Dimension
}

// Lookup возвращает доступ к блокам измерения для алгоритмов voxel.
// Воздух считается отсутствием блока.
func Lookup(dim Dimension) voxel.BlockLookup {
	return dimensionLookup{dim: dim}
}

func (l dimensionLookup) Block(pos vec.Vec3) (voxel.Block, bool) {
	b, ok := l.dim.Block(pos)
	if !ok || b.TypeID == AirID {
		return voxel.Block{}, false
	}
	return b, true
}

func (l dimensionLookup) SetEmpty(pos vec.Vec3) error {
	return l.dim.SetBlock(pos, AirID)
}

func (l dimensionLookup) SpawnDrop(typeID string, at vec.Vec3Float) error {
	_, err := l.dim.SpawnItem(NewItem(typeID), at)
	return err
}
