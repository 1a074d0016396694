package session

// FlightState состояние полёта в броне
type FlightState uint8

const (
	Grounded FlightState = iota
	Precharging
	Flying
)

func (s FlightState) String() string {
	switch s {
	case Grounded:
		return "grounded"
	case Precharging:
		return "precharging"
	case Flying:
		return "flying"
	default:
		return "unknown"
	}
}

// Transition результат шага автомата полёта
type Transition uint8

const (
	TransitionNone      Transition = iota
	TransitionPrecharge            // начало разгона
	TransitionTakeoff              // взлёт
	TransitionCancel               // разгон прерван
	TransitionLand                 // посадка
)

func (t Transition) String() string {
	switch t {
	case TransitionPrecharge:
		return "precharge"
	case TransitionTakeoff:
		return "takeoff"
	case TransitionCancel:
		return "cancel"
	case TransitionLand:
		return "land"
	default:
		return "none"
	}
}

// AdvanceFlight продвигает автомат на один опрос.
// prechargePolls задаёт, сколько опросов подряд нужно держать присед до взлёта.
func (r *Record) AdvanceFlight(sneaking bool, prechargePolls int) Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.flight {
	case Grounded:
		if !sneaking {
			return TransitionNone
		}
		if prechargePolls <= 0 {
			r.flight = Flying
			return TransitionTakeoff
		}
		r.flight = Precharging
		r.precharge = 0
		return TransitionPrecharge

	case Precharging:
		if !sneaking {
			r.flight = Grounded
			r.precharge = 0
			return TransitionCancel
		}
		r.precharge++
		if r.precharge >= prechargePolls {
			r.flight = Flying
			r.precharge = 0
			return TransitionTakeoff
		}
		return TransitionNone

	case Flying:
		if sneaking {
			return TransitionNone
		}
		r.flight = Grounded
		return TransitionLand
	}
	return TransitionNone
}

// ResetFlight возвращает автомат в Grounded без эффектов посадки
func (r *Record) ResetFlight() {
	r.mu.Lock()
	r.flight = Grounded
	r.precharge = 0
	r.mu.Unlock()
}

// Flight текущее состояние полёта
func (r *Record) Flight() FlightState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flight
}
