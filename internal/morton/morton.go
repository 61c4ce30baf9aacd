// Package morton кодирует трёхмерные координаты в 64-битный ключ Z-порядка.
//
// Каждая координата занимает до 21 бита; биты x, y, z чередуются так,
// что бит i координаты x попадает в позицию 3i, y в 3i+1, z в 3i+2.
package morton

const (
	// AxisBits число значащих бит на ось
	AxisBits = 21
	// MaxAxis наибольшее кодируемое значение координаты
	MaxAxis = 1<<AxisBits - 1
	// CodeBits число используемых бит кода
	CodeBits = 3 * AxisBits

	// GroupBits ширина группы, которую потребляет один уровень 64-арного дерева
	GroupBits = 6
	// GroupMask маска одной группы
	GroupMask = 1<<GroupBits - 1
)

// Code хранит закодированные координаты
type Code uint64

// Encode кодирует беззнаковые координаты. Биты выше 21-го отбрасываются.
func Encode(x, y, z uint32) Code {
	return Code(dilate(uint64(x)) | dilate(uint64(y))<<1 | dilate(uint64(z))<<2)
}

// EncodeSigned кодирует модули знаковых координат.
func EncodeSigned(x, y, z int32) Code {
	return Encode(abs32(x), abs32(y), abs32(z))
}

// Decode восстанавливает координаты из кода
func Decode(code Code) (x, y, z uint32) {
	c := uint64(code)
	return uint32(undilate(c)), uint32(undilate(c >> 1)), uint32(undilate(c >> 2))
}

// Decode восстанавливает координаты из кода
func (c Code) Decode() (x, y, z uint32) {
	return Decode(c)
}

// Raw возвращает код как uint64
func (c Code) Raw() uint64 {
	return uint64(c)
}

// Less сравнивает коды в порядке Z-кривой
func (c Code) Less(other Code) bool {
	return c < other
}

// Group возвращает 6-битную группу с номером level, считая от младших бит.
func (c Code) Group(level int) int {
	return int(ExtractGroup(uint64(c), level, GroupBits))
}

// ExtractGroup возвращает groupBits бит кода, начиная со смещения level*groupBits
// от младшего конца. Группы за пределами 64 бит читаются как ноль.
func ExtractGroup(code uint64, level, groupBits int) uint64 {
	if level < 0 || groupBits <= 0 {
		return 0
	}
	shift := uint(level * groupBits)
	if shift >= 64 {
		return 0
	}
	return (code >> shift) & (1<<uint(groupBits) - 1)
}

// dilate раздвигает 21 младший бит n, вставляя два нулевых бита между соседними.
func dilate(n uint64) uint64 {
	x := n & MaxAxis
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

// undilate собирает каждый третий бит обратно в 21-битное число.
func undilate(n uint64) uint64 {
	x := n & 0x1249249249249249
	x = (x ^ x>>2) & 0x10c30c30c30c30c3
	x = (x ^ x>>4) & 0x100f00f00f00f00f
	x = (x ^ x>>8) & 0x1f0000ff0000ff
	x = (x ^ x>>16) & 0x1f00000000ffff
	x = (x ^ x>>32) & MaxAxis
	return x
}

func abs32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}
