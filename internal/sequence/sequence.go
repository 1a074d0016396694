// Package sequence проигрывает цепочку шагов с задержками в тиках
// (движения камеры в катсценах).
package sequence

import (
	"errors"
	"sync"

	"github.com/annel0/neonite-mod/internal/scheduler"
)

// ErrNilApply возвращается, если не передана функция применения шага
var ErrNilApply = errors.New("sequence: apply func is nil")

// Step один шаг: поза, время сглаживания и пауза до следующего шага (в тиках)
type Step[P any] struct {
	Pose P
	Ease uint64
	Wait uint64
}

// Subject объект, для которого проигрывается последовательность (обычно игрок)
type Subject interface {
	Valid() bool
}

// State состояние проигрывания
type State int

const (
	Running State = iota
	Finished
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Sequence запущенная последовательность
type Sequence[P any] struct {
	mu      sync.Mutex
	sched   *scheduler.Scheduler
	subject Subject
	steps   []Step[P]
	apply   func(index int, step Step[P])
	done    func()
	state   State
	next    int
	pending *scheduler.Handle
}

// Play применяет первый шаг сразу, каждый следующий после Wait предыдущего,
// и вызывает done ровно один раз через Wait последнего шага.
// Перед каждым шагом проверяется subject: если он больше не валиден,
// последовательность прерывается без вызова done.
func Play[P any](sched *scheduler.Scheduler, subject Subject, steps []Step[P], apply func(index int, step Step[P]), done func()) (*Sequence[P], error) {
	if apply == nil {
		return nil, ErrNilApply
	}
	if sched == nil {
		return nil, errors.New("sequence: scheduler is nil")
	}
	s := &Sequence[P]{
		sched:   sched,
		subject: subject,
		steps:   steps,
		apply:   apply,
		done:    done,
	}
	s.advance()
	return s, nil
}

// State текущее состояние
func (s *Sequence[P]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel прерывает последовательность; done не вызывается
func (s *Sequence[P]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	s.state = Aborted
	s.pending.Cancel()
}

func (s *Sequence[P]) alive() bool {
	return s.subject == nil || s.subject.Valid()
}

func (s *Sequence[P]) advance() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	if !s.alive() {
		s.state = Aborted
		s.mu.Unlock()
		return
	}

	if s.next >= len(s.steps) {
		s.state = Finished
		done := s.done
		s.mu.Unlock()
		if done != nil {
			done()
		}
		return
	}

	index := s.next
	step := s.steps[index]
	s.next++
	s.mu.Unlock()

	s.apply(index, step)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	s.pending = s.sched.RunTimeout(step.Wait, s.advance)
}
