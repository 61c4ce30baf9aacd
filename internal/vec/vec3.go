package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int
	Y int
	Z int
}

// UVec3 беззнаковые координаты внутри секции или дерева
type UVec3 struct {
	X uint32
	Y uint32
	Z uint32
}

// ToVec2 возвращает проекцию на горизонтальную плоскость
func (v Vec3) ToVec2() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// ColumnCoords возвращает координаты колонны, в которой лежит точка
func (v Vec3) ColumnCoords() Vec2 {
	return Vec2{X: v.X >> 4, Z: v.Z >> 4}
}

// SectionIndex возвращает номер секции по высоте
func (v Vec3) SectionIndex() int {
	return v.Y >> 4
}

// LocalInSection возвращает координаты внутри секции 16x16x16
func (v Vec3) LocalInSection() UVec3 {
	return UVec3{X: uint32(v.X & 0xF), Y: uint32(v.Y & 0xF), Z: uint32(v.Z & 0xF)}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// AllLess сообщает, что все координаты строго меньше bound
func (u UVec3) AllLess(bound uint32) bool {
	return u.X < bound && u.Y < bound && u.Z < bound
}

// ToVec3 преобразует в знаковый вектор
func (u UVec3) ToVec3() Vec3 {
	return Vec3{X: int(u.X), Y: int(u.Y), Z: int(u.Z)}
}
