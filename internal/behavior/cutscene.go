package behavior

import (
	"context"
	"math"

	"github.com/annel0/neonite-mod/internal/eventbus"
	"github.com/annel0/neonite-mod/internal/host"
	"github.com/annel0/neonite-mod/internal/sequence"
	"github.com/annel0/neonite-mod/internal/vec"
)

const (
	orbitRadius = 6
	orbitHeight = 3
	orbitPoints = 4
	orbitEase   = 20
	orbitWait   = 40
)

type cutscene struct {
	seq *sequence.Sequence[host.CameraPose]
}

// OrbitSteps облёт вокруг точки center: orbitPoints позиций по окружности,
// камера смотрит на look.
func OrbitSteps(center, look vec.Vec3Float) []sequence.Step[host.CameraPose] {
	steps := make([]sequence.Step[host.CameraPose], 0, orbitPoints)
	for i := 0; i < orbitPoints; i++ {
		angle := 2 * math.Pi * float64(i) / orbitPoints
		pos := vec.Vec3Float{
			X: center.X + orbitRadius*math.Cos(angle),
			Y: center.Y + orbitHeight,
			Z: center.Z + orbitRadius*math.Sin(angle),
		}
		steps = append(steps, sequence.Step[host.CameraPose]{
			Pose: host.CameraPose{Position: pos, Facing: look, Ease: orbitEase},
			Ease: orbitEase,
			Wait: orbitWait,
		})
	}
	return steps
}

// onCameraUse запускает облёт камерой вокруг игрока
func (m *Mod) onCameraUse(ctx context.Context, ev *host.ItemUseEvent) {
	if ev.Item == nil || ev.Item.TypeID != CameraID {
		return
	}
	p := ev.Source

	m.cutMu.Lock()
	if c, ok := m.cutscenes[p.ID()]; ok && c.seq.State() == sequence.Running {
		m.cutMu.Unlock()
		return
	}
	m.cutMu.Unlock()

	steps := OrbitSteps(p.Location(), p.HeadLocation())
	apply := func(i int, step sequence.Step[host.CameraPose]) {
		if err := p.SetCamera(step.Pose); err != nil {
			m.log.Warn("⚠️ Камера %s, шаг %d: %v", p.Name(), i, err)
		}
	}
	done := func() {
		m.cutMu.Lock()
		delete(m.cutscenes, p.ID())
		m.cutMu.Unlock()

		_ = p.ClearCamera()
		_ = p.SendMessage("§d🎬 Облёт завершён")
		m.publish(ctx, eventbus.TypeCutsceneFinished, eventbus.CutsceneFinished{
			PlayerID: p.ID(),
			Steps:    len(steps),
		})
	}

	seq, err := sequence.Play(m.sched, p, steps, apply, done)
	if err != nil {
		m.log.Error("❌ Катсцена: %v", err)
		return
	}

	m.cutMu.Lock()
	m.cutscenes[p.ID()] = &cutscene{seq: seq}
	m.cutMu.Unlock()
	m.metrics.trigger(labelCutscene)
}

// stopCutscene прерывает облёт игрока
func (m *Mod) stopCutscene(playerID string) {
	m.cutMu.Lock()
	defer m.cutMu.Unlock()
	if c, ok := m.cutscenes[playerID]; ok {
		c.seq.Cancel()
		delete(m.cutscenes, playerID)
	}
}
