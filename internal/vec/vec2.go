package vec

// Vec2Float представляет поворот камеры или сущности (pitch, yaw в градусах)
type Vec2Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
