package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_MapKey(t *testing.T) {
	// Координаты (1,23,4) и (12,3,4) не должны совпадать как ключи
	m := map[Vec3]int{}
	m[Vec3{X: 1, Y: 23, Z: 4}] = 1
	m[Vec3{X: 12, Y: 3, Z: 4}] = 2
	assert.Len(t, m, 2, "Ключи не должны конфликтовать")
}

func TestVec3Float_Floor(t *testing.T) {
	assert.Equal(t, Vec3{X: -1, Y: 0, Z: 2}, Vec3Float{X: -0.5, Y: 0.99, Z: 2.0}.Floor())
}

func TestVec3_DistanceTo(t *testing.T) {
	assert.InDelta(t, 5.0, Vec3{}.DistanceTo(Vec3{X: 3, Y: 4}), 1e-9)
	assert.Equal(t, Vec3Float{X: 1.5, Y: 2.5, Z: 3.5}, Vec3{X: 1, Y: 2, Z: 3}.Center())
}
