package vec

import "math"

// Vec2 представляет координаты колонны на горизонтальной плоскости (X, Z)
type Vec2 struct {
	X, Z int
}

// ToColumnCoords преобразует мировые координаты в координаты колонны
func (v Vec2) ToColumnCoords() Vec2 {
	return Vec2{X: v.X >> 4, Z: v.Z >> 4} // Деление на 16
}

// LocalInColumn возвращает локальные координаты внутри колонны
func (v Vec2) LocalInColumn() Vec2 {
	return Vec2{X: v.X & 0xF, Z: v.Z & 0xF} // Модуль 16
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}
