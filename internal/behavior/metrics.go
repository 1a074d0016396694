package behavior

import "github.com/prometheus/client_golang/prometheus"

// Metrics счётчики механик мода
type Metrics struct {
	Triggers    *prometheus.CounterVec
	Smelted     prometheus.Counter
	FelledTotal prometheus.Counter
	FellSize    prometheus.Histogram
	Teleports   prometheus.Counter
	Flying      prometheus.Gauge
}

// Значения метки behavior
const (
	labelSmelt     = "smelt"
	labelSwordHit  = "sword_hit"
	labelDash      = "dash"
	labelFlight    = "flight"
	labelFallGuard = "fall_guard"
	labelPlate     = "plate"
	labelCreeper   = "creeper"
	labelFell      = "fell"
	labelLocator   = "locator"
	labelCutscene  = "cutscene"
)

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neonite",
			Name:      "behavior_triggers_total",
			Help:      "Срабатывания механик мода.",
		}, []string{"behavior"}),
		Smelted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neonite",
			Name:      "ore_smelted_total",
			Help:      "Переплавленные киркой предметы.",
		}),
		FelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neonite",
			Name:      "blocks_felled_total",
			Help:      "Блоки, удалённые топором.",
		}),
		FellSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neonite",
			Name:      "fell_size_blocks",
			Help:      "Размер срубленного дерева в блоках.",
			Buckets:   []float64{1, 4, 8, 16, 32, 64, 128, 256},
		}),
		Teleports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neonite",
			Name:      "plate_teleports_total",
			Help:      "Телепортации между плитами.",
		}),
		Flying: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neonite",
			Name:      "players_flying",
			Help:      "Игроки в полёте на броне.",
		}),
	}
	reg.MustRegister(m.Triggers, m.Smelted, m.FelledTotal, m.FellSize, m.Teleports, m.Flying)
	return m
}

func (m *Metrics) trigger(behavior string) {
	m.Triggers.WithLabelValues(behavior).Inc()
}
