package sim

import (
	"sync"

	"github.com/annel0/neonite-mod/internal/vec"
)

// EffectKind вид внешнего воздействия, которое мод оказал на мир
type EffectKind string

const (
	KindEffectAdd    EffectKind = "effect_add"
	KindEffectRemove EffectKind = "effect_remove"
	KindDamage       EffectKind = "damage"
	KindImpulse      EffectKind = "impulse"
	KindTeleport     EffectKind = "teleport"
	KindSound        EffectKind = "sound"
	KindParticle     EffectKind = "particle"
	KindMessage      EffectKind = "message"
	KindBroadcast    EffectKind = "broadcast"
	KindCamera       EffectKind = "camera"
	KindCameraClear  EffectKind = "camera_clear"
	KindTrigger      EffectKind = "trigger"
	KindSpawn        EffectKind = "spawn"
	KindRemove       EffectKind = "remove"
	KindCooldown     EffectKind = "cooldown"
	KindBlock        EffectKind = "block"
	KindEquipment    EffectKind = "equipment"
	KindHealth       EffectKind = "health"
)

// Effect одна запись журнала воздействий
type Effect struct {
	Kind   EffectKind
	Target string // ID сущности или измерения
	Name   string // эффект, звук, частица, текст сообщения, тип блока
	At     vec.Vec3Float
	Value  float64
}

// Recorder потокобезопасный журнал воздействий
type Recorder struct {
	mu      sync.Mutex
	effects []Effect
}

func (r *Recorder) record(e Effect) {
	r.mu.Lock()
	r.effects = append(r.effects, e)
	r.mu.Unlock()
}

// Effects возвращает копию журнала
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Of возвращает записи указанного вида
func (r *Recorder) Of(kind EffectKind) []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Effect
	for _, e := range r.effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Has проверяет наличие записи вида kind с именем name
func (r *Recorder) Has(kind EffectKind, name string) bool {
	for _, e := range r.Of(kind) {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Reset очищает журнал
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.effects = nil
	r.mu.Unlock()
}
