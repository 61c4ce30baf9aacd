package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = int32(3)
)

// Noise генератор шума Перлина с собственным сидом.
// Генераторы с разными сидами независимы.
type Noise struct {
	p    *perlin.Perlin
	seed int64
}

// NewNoise создаёт генератор шума
func NewNoise(seed int64) *Noise {
	return &Noise{
		p:    perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
		seed: seed,
	}
}

// Seed возвращает сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// At2D возвращает значение шума в точке, приведённое к [0, 1]
func (n *Noise) At2D(x, y float64) float64 {
	v := (n.p.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
