package world

import (
	"context"
	"math/rand"
	"time"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/util"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world/block"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

func (b BiomeType) String() string {
	switch b {
	case BiomePlains:
		return "plains"
	case BiomeDesert:
		return "desert"
	case BiomeForest:
		return "forest"
	case BiomeMountains:
		return "mountains"
	case BiomeWater:
		return "water"
	default:
		return "unknown"
	}
}

// Пороговые значения шума высоты
const (
	ShallowWaterMax = 0.30 // Ниже - дно под водой
	MountainStart   = 0.80 // Выше - горы
	SnowStart       = 0.90 // Выше - снежные вершины
)

// Generator заполняет колонны ландшафтом по шуму Перлина
type Generator struct {
	Seed          int64   // Сид для генерации шума
	Height        int     // Число секций в колонне
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Вероятность дерева в лесу (от 0 до 1)
	SeaLevel      int     // Уровень воды в блоках

	heightNoise *util.Noise
	biomeNoise  *util.Noise
	metrics     *metrics.Metrics
	logger      *logging.Logger
	tracer      trace.Tracer
}

// NewGenerator создаёт генератор колонн высотой height секций
func NewGenerator(seed int64, height int) *Generator {
	return &Generator{
		Seed:          seed,
		Height:        height,
		NoiseScale:    0.05,
		BiomeScale:    0.02,
		ForestDensity: 0.02,
		SeaLevel:      height * SectionSize / 3,
		heightNoise:   util.NewNoise(seed),
		biomeNoise:    util.NewNoise(seed + 42),
		logger:        logging.GetWorldgenLogger(),
		tracer:        otel.Tracer("worldgen"),
	}
}

// WithMetrics подключает метрики генерации
func (g *Generator) WithMetrics(m *metrics.Metrics) *Generator {
	g.metrics = m
	return g
}

// GenerateColumn генерирует колонну по её координатам
func (g *Generator) GenerateColumn(ctx context.Context, coords vec.Vec2) (*Column[block.BlockID], error) {
	_, span := g.tracer.Start(ctx, "worldgen.GenerateColumn", trace.WithAttributes(
		attribute.Int("column.x", coords.X),
		attribute.Int("column.z", coords.Z),
	))
	defer span.End()

	start := time.Now()

	col, err := NewColumn(coords, g.Height, block.AirBlockID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Для каждой колонны свой детерминированный источник случайности
	rng := rand.New(rand.NewSource(g.Seed + int64(coords.X)*31 + int64(coords.Z)*17))

	top := g.Height*SectionSize - 1
	baseX := coords.X * SectionSize
	baseZ := coords.Z * SectionSize

	for z := 0; z < SectionSize; z++ {
		for x := 0; x < SectionSize; x++ {
			gx := float64(baseX + x)
			gz := float64(baseZ + z)

			h := g.heightNoise.At2D(gx*g.NoiseScale, gz*g.NoiseScale)
			biome := g.biomeType(h, g.biomeNoise.At2D(gx*g.BiomeScale, gz*g.BiomeScale))

			surface := 1 + int(h*float64(top-1))
			if err := g.fillStrip(col, x, z, surface, h, biome); err != nil {
				span.RecordError(err)
				return nil, err
			}

			if biome == BiomeForest && surface+6 < top && isInterior(x, z) && rng.Float64() < g.ForestDensity {
				if err := g.placeTree(col, x, surface+1, z, rng); err != nil {
					span.RecordError(err)
					return nil, err
				}
			}
		}
	}

	elapsed := time.Since(start)
	g.metrics.ObserveGenerate(elapsed.Seconds())
	g.logger.Debug("Колонна (%d,%d) сгенерирована за %v, палитра %d", coords.X, coords.Z, elapsed, col.PaletteEntries())
	return col, nil
}

// fillStrip заполняет вертикаль от бедрока до поверхности и воду до уровня моря
func (g *Generator) fillStrip(col *Column[block.BlockID], x, z, surface int, h float64, biome BiomeType) error {
	top, filler := g.surfaceBlocks(h, biome)

	for y := 0; y <= surface; y++ {
		id := block.StoneBlockID
		switch {
		case y == 0:
			id = block.BedrockBlockID
		case y == surface:
			id = top
		case y >= surface-3:
			id = filler
		}
		if err := col.Set(x, y, z, id); err != nil {
			return err
		}
	}

	for y := surface + 1; y <= g.SeaLevel && y < col.Height()*SectionSize; y++ {
		if err := col.Set(x, y, z, block.WaterBlockID); err != nil {
			return err
		}
	}
	return nil
}

// placeTree ставит дуб: ствол 3-5 блоков и крона 3x3 над ним
func (g *Generator) placeTree(col *Column[block.BlockID], x, y, z int, rng *rand.Rand) error {
	trunk := 3 + rng.Intn(3)
	for i := 0; i < trunk; i++ {
		if err := col.Set(x, y+i, z, block.OakLogBlockID); err != nil {
			return err
		}
	}

	crown := y + trunk
	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				if dy == -1 && dx == 0 && dz == 0 {
					continue
				}
				if err := col.Set(x+dx, crown+dy, z+dz, block.OakLeavesBlockID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// surfaceBlocks возвращает блок поверхности и подстилающий блок
func (g *Generator) surfaceBlocks(h float64, biome BiomeType) (top, filler block.BlockID) {
	switch biome {
	case BiomeWater:
		return block.SandBlockID, block.GravelBlockID
	case BiomeDesert:
		return block.SandBlockID, block.SandBlockID
	case BiomeMountains:
		if h > SnowStart {
			return block.SnowBlockID, block.StoneBlockID
		}
		return block.StoneBlockID, block.CobblestoneBlockID
	default:
		return block.GrassBlockID, block.DirtBlockID
	}
}

// biomeType определяет тип биома на основе значений шума
func (g *Generator) biomeType(height, biomeValue float64) BiomeType {
	if height < ShallowWaterMax {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}

	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}
	return BiomePlains
}

func isInterior(x, z int) bool {
	return x > 0 && x < SectionSize-1 && z > 0 && z < SectionSize-1
}
