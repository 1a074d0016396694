package sim

import (
	"math/rand"
	"strings"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/neonite-mod/internal/vec"
)

// Блоки, которые ставит генератор
const (
	GrassBlock     = "minecraft:grass_block"
	DirtBlock      = "minecraft:dirt"
	StoneBlock     = "minecraft:stone"
	DeepslateBlock = "minecraft:deepslate"
	OakLog         = "minecraft:oak_log"
	OakLeaves      = "minecraft:oak_leaves"
	BirchLog       = "minecraft:birch_log"
	BirchLeaves    = "minecraft:birch_leaves"
)

// Руды и их минимальная глубина под поверхностью
var oreLayers = []struct {
	id       string
	minDepth int
	chance   float64
}{
	{"minecraft:coal_ore", 2, 0.030},
	{"minecraft:copper_ore", 3, 0.020},
	{"minecraft:iron_ore", 4, 0.020},
	{"minecraft:gold_ore", 7, 0.010},
	{"minecraft:deepslate_iron_ore", 9, 0.015},
	{"minecraft:deepslate_gold_ore", 9, 0.010},
}

// TerrainOptions параметры генерации
type TerrainOptions struct {
	Seed          int64
	Size          int     // сторона квадрата в блоках, центр в (0, 0)
	BaseY         int     // нижняя граница мира
	Amplitude     int     // разброс высоты поверхности
	NoiseScale    float64 // масштаб шума высоты
	ForestDensity float64 // вероятность дерева на клетке травы
	DeepslateY    int     // ниже этой высоты камень заменяется глубинным сланцем
}

// DefaultTerrain параметры по умолчанию
func DefaultTerrain(seed int64, size int) TerrainOptions {
	return TerrainOptions{
		Seed:          seed,
		Size:          size,
		BaseY:         0,
		Amplitude:     8,
		NoiseScale:    0.05,
		ForestDensity: 0.04,
		DeepslateY:    4,
	}
}

// TerrainStats итог генерации
type TerrainStats struct {
	Columns int
	Blocks  int
	Trees   int
	Ores    int
}

// GenerateTerrain заполняет измерение ландшафтом по шуму Перлина:
// камень, земля, трава, руды в камне и деревья из брёвен и листвы.
func GenerateTerrain(d *Dimension, opts TerrainOptions) TerrainStats {
	noise := perlin.NewPerlin(2, 2, 3, opts.Seed)
	rng := rand.New(rand.NewSource(opts.Seed))

	var stats TerrainStats
	half := opts.Size / 2
	for x := -half; x < opts.Size-half; x++ {
		for z := -half; z < opts.Size-half; z++ {
			// Шум в [-1, 1] переводим в [0, 1]
			h := (noise.Noise2D(float64(x)*opts.NoiseScale, float64(z)*opts.NoiseScale) + 1) / 2
			surface := opts.BaseY + 12 + int(h*float64(opts.Amplitude))
			stats.Columns++

			for y := opts.BaseY; y <= surface; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				depth := surface - y
				id := StoneBlock
				switch {
				case depth == 0:
					id = GrassBlock
				case depth <= 2:
					id = DirtBlock
				case y < opts.DeepslateY:
					id = DeepslateBlock
				}
				if id == StoneBlock || id == DeepslateBlock {
					if ore, ok := pickOre(rng, depth, id == DeepslateBlock); ok {
						id = ore
						stats.Ores++
					}
				}
				d.Place(pos, id)
				stats.Blocks++
			}

			// Деревья не ставим у края, чтобы крона помещалась
			if x > -half+2 && x < opts.Size-half-3 && z > -half+2 && z < opts.Size-half-3 &&
				rng.Float64() < opts.ForestDensity {
				stats.Blocks += plantTree(d, rng, vec.Vec3{X: x, Y: surface + 1, Z: z})
				stats.Trees++
			}
		}
	}
	return stats
}

func pickOre(rng *rand.Rand, depth int, deep bool) (string, bool) {
	for _, ore := range oreLayers {
		if depth < ore.minDepth {
			continue
		}
		if strings.HasPrefix(ore.id, "minecraft:deepslate_") != deep {
			continue
		}
		if rng.Float64() < ore.chance {
			return ore.id, true
		}
	}
	return "", false
}

// plantTree ставит ствол высотой 4..6 и крону; возвращает число поставленных блоков
func plantTree(d *Dimension, rng *rand.Rand, base vec.Vec3) int {
	log, leaves := OakLog, OakLeaves
	if rng.Intn(3) == 0 {
		log, leaves = BirchLog, BirchLeaves
	}
	height := 4 + rng.Intn(3)
	placed := 0
	for dy := 0; dy < height; dy++ {
		d.Place(vec.Vec3{X: base.X, Y: base.Y + dy, Z: base.Z}, log)
		placed++
	}

	top := base.Y + height - 1
	for dy := -1; dy <= 1; dy++ {
		r := 2
		if dy == 1 {
			r = 1
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				pos := vec.Vec3{X: base.X + dx, Y: top + dy, Z: base.Z + dz}
				if _, ok := d.Block(pos); ok {
					continue
				}
				d.Place(pos, leaves)
				placed++
			}
		}
	}
	d.Place(vec.Vec3{X: base.X, Y: top + 2, Z: base.Z}, leaves)
	placed++
	return placed
}
