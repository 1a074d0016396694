// Package voxel содержит алгоритмы над разреженной воксельной сеткой:
// удаление связной группы блоков (валка деревьев) и поиск ближайшего блока.
package voxel

import (
	"errors"

	"github.com/annel0/neonite-mod/internal/vec"
)

var (
	// ErrNilLookup возвращается, если не передан доступ к блокам
	ErrNilLookup = errors.New("voxel: block lookup is nil")
	// ErrNilPredicate возвращается, если не передан предикат типа блока
	ErrNilPredicate = errors.New("voxel: type predicate is nil")
	// ErrNegativeRadius возвращается при отрицательном радиусе поиска
	ErrNegativeRadius = errors.New("voxel: search radius is negative")
)

// Block описывает содержимое ячейки
type Block struct {
	TypeID string `json:"type_id"`
}

// BlockLookup даёт доступ к миру, который предоставляет движок.
// Block возвращает false, если ячейка вне загруженной области или пуста.
type BlockLookup interface {
	Block(pos vec.Vec3) (Block, bool)
	SetEmpty(pos vec.Vec3) error
	SpawnDrop(typeID string, at vec.Vec3Float) error
}

// TypePredicate решает, является ли тип блока целевым
type TypePredicate func(typeID string) bool

// MatchType возвращает предикат точного совпадения с одним из идентификаторов
func MatchType(ids ...string) TypePredicate {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(typeID string) bool {
		_, ok := set[typeID]
		return ok
	}
}
