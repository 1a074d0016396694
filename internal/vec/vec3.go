package vec

import (
	"fmt"
	"math"
)

// Vec3 представляет координату ячейки воксельной сетки (Y: вертикальная ось).
// Структура сравнима и используется как ключ карт напрямую.
type Vec3 struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
	Z int `json:"z" bson:"z"`
}

// Vec3Float представляет позицию в мире с плавающими координатами
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Up возвращает соседнюю ячейку сверху
func (v Vec3) Up() Vec3 { return Vec3{X: v.X, Y: v.Y + 1, Z: v.Z} }

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceTo возвращает евклидово расстояние до другой ячейки
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Center возвращает мировую позицию центра ячейки
func (v Vec3) Center() Vec3Float {
	return Vec3Float{X: float64(v.X) + 0.5, Y: float64(v.Y) + 0.5, Z: float64(v.Z) + 0.5}
}

// ToFloat возвращает позицию угла ячейки без смещения
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("%d %d %d", v.X, v.Y, v.Z)
}

// Floor возвращает ячейку, содержащую точку
func (v Vec3Float) Floor() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale умножает вектор на скаляр
func (v Vec3Float) Scale(k float64) Vec3Float {
	return Vec3Float{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize возвращает единичный вектор; нулевой вектор остаётся как есть
func (v Vec3Float) Normalize() Vec3Float {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// DistanceTo возвращает расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3Float) String() string {
	return fmt.Sprintf("%.2f %.2f %.2f", v.X, v.Y, v.Z)
}
