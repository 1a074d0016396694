package voxel

import (
	"fmt"

	"github.com/annel0/neonite-mod/internal/logging"
	"github.com/annel0/neonite-mod/internal/vec"
)

// TreeOffsets задаёт смежность для валки деревьев: 4 горизонтальных соседа, 1 снизу
// и 5 направлений вверх/вверх-вбок. Асимметрия повторяет форму деревьев,
// менять на 6- или 26-связность нельзя.
var TreeOffsets = [...]vec.Vec3{
	{X: 1, Y: 0, Z: 0},
	{X: -1, Y: 0, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: -1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 1},
	{X: 0, Y: 1, Z: -1},
}

// DropError описывает неудачный дроп предмета; удаление блока при этом остаётся в силе
type DropError struct {
	Pos    vec.Vec3
	TypeID string
	Err    error
}

func (e *DropError) Error() string {
	return fmt.Sprintf("drop %s at %s: %v", e.TypeID, e.Pos, e.Err)
}

func (e *DropError) Unwrap() error { return e.Err }

// FellReport результат обхода
type FellReport struct {
	Removed       []vec.Vec3 // в порядке удаления
	Visited       int
	DropFailures  []*DropError
	ClearFailures []error
	Truncated     bool // достигнут лимит удалений
}

// Feller удаляет связные группы блоков. Все вызовы Fell одного Feller
// считаются одним обходом и делят множество посещённых ячеек.
type Feller struct {
	lookup  BlockLookup
	match   TypePredicate
	visited map[vec.Vec3]struct{}
	report  FellReport

	// Limit ограничивает число удалённых блоков (0: без ограничения)
	Limit int
}

// NewFeller создаёт обход для заданного доступа к миру и предиката
func NewFeller(lookup BlockLookup, match TypePredicate) (*Feller, error) {
	if lookup == nil {
		return nil, ErrNilLookup
	}
	if match == nil {
		return nil, ErrNilPredicate
	}
	return &Feller{
		lookup:  lookup,
		match:   match,
		visited: make(map[vec.Vec3]struct{}),
	}, nil
}

// FellConnected удаляет связную группу, начиная с start, одним вызовом
func FellConnected(lookup BlockLookup, start vec.Vec3, match TypePredicate) (*FellReport, error) {
	f, err := NewFeller(lookup, match)
	if err != nil {
		return nil, err
	}
	return f.Fell(start), nil
}

// Report возвращает накопленный результат
func (f *Feller) Report() *FellReport { return &f.report }

// Fell обходит компоненту связности от start в глубину.
// Ячейка очищается до того, как рассматриваются её соседи.
func (f *Feller) Fell(start vec.Vec3) *FellReport {
	stack := []vec.Vec3{start}

	for len(stack) > 0 {
		if f.Limit > 0 && len(f.report.Removed) >= f.Limit {
			f.report.Truncated = true
			break
		}

		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := f.visited[pos]; seen {
			continue
		}
		f.visited[pos] = struct{}{}
		f.report.Visited++

		b, ok := f.lookup.Block(pos)
		if !ok || !f.match(b.TypeID) {
			continue
		}

		if err := f.lookup.SetEmpty(pos); err != nil {
			f.report.ClearFailures = append(f.report.ClearFailures, fmt.Errorf("clear %s: %w", pos, err))
			continue
		}
		f.report.Removed = append(f.report.Removed, pos)

		if err := f.lookup.SpawnDrop(b.TypeID, pos.Center()); err != nil {
			dropErr := &DropError{Pos: pos, TypeID: b.TypeID, Err: err}
			f.report.DropFailures = append(f.report.DropFailures, dropErr)
			logging.Warn("⚠️ Дроп %s не создан: %v", b.TypeID, dropErr)
		}

		// В обратном порядке, чтобы первым раскрывался первый сосед
		for i := len(TreeOffsets) - 1; i >= 0; i-- {
			next := pos.Add(TreeOffsets[i])
			if _, seen := f.visited[next]; !seen {
				stack = append(stack, next)
			}
		}
	}

	return &f.report
}
