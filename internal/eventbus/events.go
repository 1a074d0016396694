package eventbus

import "github.com/annel0/neonite-mod/internal/vec"

// Типы событий мода
const (
	TypeTreeFelled       = "TreeFelled"
	TypeOreSmelted       = "OreSmelted"
	TypePlateTeleport    = "PlateTeleport"
	TypeDashActivated    = "DashActivated"
	TypeFlightChanged    = "FlightChanged"
	TypeCreeperScatter   = "CreeperScatter"
	TypeOreLocated       = "OreLocated"
	TypeCutsceneFinished = "CutsceneFinished"
)

// AllTypes все типы событий мода
var AllTypes = []string{
	TypeTreeFelled, TypeOreSmelted, TypePlateTeleport, TypeDashActivated,
	TypeFlightChanged, TypeCreeperScatter, TypeOreLocated, TypeCutsceneFinished,
}

// TreeFelled игрок срубил дерево топором
type TreeFelled struct {
	PlayerID     string     `json:"player_id"`
	Dimension    string     `json:"dimension"`
	Origin       vec.Vec3   `json:"origin"`
	Removed      int        `json:"removed"`
	Visited      int        `json:"visited"`
	DropFailures int        `json:"drop_failures,omitempty"`
	Truncated    bool       `json:"truncated,omitempty"`
	Blocks       []vec.Vec3 `json:"blocks,omitempty"`
}

// OreSmelted кирка переплавила выпавшую руду
type OreSmelted struct {
	PlayerID string   `json:"player_id"`
	Ore      string   `json:"ore"`
	Ingot    string   `json:"ingot"`
	Count    int      `json:"count"`
	Pos      vec.Vec3 `json:"pos"`
}

// PlateTeleport игрока перенесло между плитами
type PlateTeleport struct {
	PlayerID  string        `json:"player_id"`
	Dimension string        `json:"dimension"`
	Plate     string        `json:"plate"`
	From      vec.Vec3      `json:"from"`
	To        vec.Vec3Float `json:"to"`
}

// DashActivated рывок мечом
type DashActivated struct {
	PlayerID string        `json:"player_id"`
	Impulse  vec.Vec3Float `json:"impulse"`
	Hit      int           `json:"hit"`
}

// FlightChanged смена состояния полёта в броне
type FlightChanged struct {
	PlayerID   string `json:"player_id"`
	State      string `json:"state"`
	Transition string `json:"transition"`
}

// CreeperScatter крипер разбросал игрока перед взрывом
type CreeperScatter struct {
	CreeperID string         `json:"creeper_id"`
	PlayerID  string         `json:"player_id"`
	Found     bool           `json:"found"`
	Attempts  int            `json:"attempts"`
	Target    *vec.Vec3Float `json:"target,omitempty"`
}

// OreLocated результат поиска локатором
type OreLocated struct {
	PlayerID string    `json:"player_id"`
	Found    bool      `json:"found"`
	Ore      string    `json:"ore,omitempty"`
	Pos      *vec.Vec3 `json:"pos,omitempty"`
	Distance float64   `json:"distance,omitempty"`
	Radius   int       `json:"radius"`
}

// CutsceneFinished облёт камерой завершён
type CutsceneFinished struct {
	PlayerID string `json:"player_id"`
	Steps    int    `json:"steps"`
}
