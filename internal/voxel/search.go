package voxel

import (
	"github.com/annel0/neonite-mod/internal/vec"
)

// Match найденная ячейка и её расстояние от центра поиска
type Match struct {
	Pos      vec.Vec3
	Block    Block
	Distance float64
}

// FindNearest перебирает весь куб (2R+1)³ вокруг center и возвращает
// ближайшую подходящую ячейку. Порядок обхода фиксирован: x, затем y, затем z
// по возрастанию; при равных расстояниях побеждает первая найденная.
func FindNearest(lookup BlockLookup, center vec.Vec3, radius int, match TypePredicate) (Match, bool, error) {
	if lookup == nil {
		return Match{}, false, ErrNilLookup
	}
	if match == nil {
		return Match{}, false, ErrNilPredicate
	}
	if radius < 0 {
		return Match{}, false, ErrNegativeRadius
	}

	var (
		best  Match
		found bool
	)
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				pos := vec.Vec3{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				b, ok := lookup.Block(pos)
				if !ok || !match(b.TypeID) {
					continue
				}
				d := center.DistanceTo(pos)
				if !found || d < best.Distance {
					best = Match{Pos: pos, Block: b, Distance: d}
					found = true
				}
			}
		}
	}
	return best, found, nil
}
