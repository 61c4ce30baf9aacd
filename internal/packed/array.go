package packed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

const (
	// MaxBits максимальная ширина элемента в битах
	MaxBits = 32
	// InitialBits ширина, с которой создаётся массив по умолчанию
	InitialBits = 1

	// Чтение и запись идут 64-битным little-endian словом, начиная с байта,
	// в котором лежит первый бит элемента. Ширина <= 32 и сдвиг <= 7
	// гарантируют, что элемент целиком помещается в одно слово.
	wordBytes = 8
	padding   = wordBytes - 1
)

var (
	ErrIndexOutOfBounds   = errors.New("packed: index out of bounds")
	ErrBitWidthOutOfRange = errors.New("packed: bit width out of range")
	ErrZeroBitWidth       = errors.New("packed: bit width must be non-zero")
	ErrValueOverflow      = errors.New("packed: value does not fit into bit width")
	ErrReallocateNonEmpty = errors.New("packed: cannot allocate over an allocated buffer")
	ErrDeallocateEmpty    = errors.New("packed: cannot deallocate an empty array")
)

// Array хранит беззнаковые значения фиксированной ширины (1..32 бит),
// плотно упакованные в байтовый буфер. Элемент i занимает биты
// [i*width, i*width+width) буфера.
//
// Нулевое значение Array готово к использованию: пустой массив шириной 1 бит.
// Array не потокобезопасен.
type Array struct {
	// buf имеет длину ceil(size*width/8) и ёмкость на padding байт больше,
	// чтобы чтение слова у последнего элемента не выходило за cap.
	buf  []byte
	bits int
	size int
}

// New создаёт массив на count элементов шириной 1 бит, заполненный нулями.
func New(count int) (*Array, error) {
	return NewWithWidth(count, InitialBits)
}

// NewWithWidth создаёт массив на count элементов заданной ширины, заполненный нулями.
func NewWithWidth(count, width int) (*Array, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	if err := checkCount(count); err != nil {
		return nil, err
	}
	a := &Array{bits: width}
	a.alloc(count)
	return a, nil
}

// Zeroed возвращает пустой массив заданной ширины без выделенного буфера.
// Буфер появляется после Allocate.
func Zeroed(width int) (*Array, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	return &Array{bits: width}, nil
}

func checkCount(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: negative length %d", ErrIndexOutOfBounds, count)
	}
	return nil
}

func checkWidth(width int) error {
	if width == 0 {
		return ErrZeroBitWidth
	}
	if width < 0 || width > MaxBits {
		return fmt.Errorf("%w: %d (allowed 1..%d)", ErrBitWidthOutOfRange, width, MaxBits)
	}
	return nil
}

// Len возвращает число элементов
func (a *Array) Len() int {
	return a.size
}

// IsEmpty сообщает, что буфер не выделен
func (a *Array) IsEmpty() bool {
	return a.size == 0
}

// BitWidth возвращает текущую ширину элемента в битах
func (a *Array) BitWidth() int {
	if a.bits == 0 {
		return InitialBits
	}
	return a.bits
}

// AllocatedBytes возвращает логический размер буфера: ceil(len*width/8)
func (a *Array) AllocatedBytes() int {
	if a.size == 0 {
		return 0
	}
	return len(a.buf)
}

// Get возвращает элемент index.
func (a *Array) Get(index int) (uint32, error) {
	if index < 0 || index >= a.size {
		return 0, fmt.Errorf("%w: index %d, len %d", ErrIndexOutOfBounds, index, a.size)
	}
	return a.GetUnchecked(index), nil
}

// Set записывает value в элемент index. Значение должно помещаться в BitWidth бит.
func (a *Array) Set(index int, value uint32) error {
	if index < 0 || index >= a.size {
		return fmt.Errorf("%w: index %d, len %d", ErrIndexOutOfBounds, index, a.size)
	}
	width := a.BitWidth()
	if width < MaxBits && value>>width != 0 {
		return fmt.Errorf("%w: %d needs %d bits, width is %d", ErrValueOverflow, value, RequiredBits(value), width)
	}
	a.SetUnchecked(index, value)
	return nil
}

// GetUnchecked читает элемент без проверки индекса.
// Индекс за пределами массива приводит к панике среды выполнения.
func (a *Array) GetUnchecked(index int) uint32 {
	width := a.BitWidth()
	return readBits(a.buf, index*width, width)
}

// SetUnchecked записывает элемент без проверок. Лишние старшие биты value отбрасываются.
func (a *Array) SetUnchecked(index int, value uint32) {
	width := a.BitWidth()
	writeBits(a.buf, index*width, width, value)
}

// GrowBitWidth меняет ширину элемента на delta бит (delta может быть отрицательной),
// ограничивая результат диапазоном [1, 32]. Если буфер выделен, все элементы
// перепаковываются в новый буфер; при сужении значения обрезаются по модулю 2^width.
func (a *Array) GrowBitWidth(delta int) {
	a.resizeBits(clampWidth(a.BitWidth() + delta))
}

// GrowBitWidthByDoubling удваивает ширину элемента (не более 32 бит).
func (a *Array) GrowBitWidthByDoubling() {
	a.resizeBits(clampWidth(a.BitWidth() * 2))
}

// EnsureBitWidth расширяет массив так, чтобы в него помещалось value.
// Возвращает true, если ширина изменилась.
func (a *Array) EnsureBitWidth(value uint32) bool {
	need := RequiredBits(value)
	if need <= a.BitWidth() {
		return false
	}
	a.resizeBits(need)
	return true
}

func (a *Array) resizeBits(newBits int) {
	oldBits := a.BitWidth()
	if newBits == oldBits {
		return
	}

	if a.size > 0 {
		newBuf := makeBuffer(a.size, newBits)
		src, dst := 0, 0
		for i := 0; i < a.size; i++ {
			writeBits(newBuf, dst, newBits, readBits(a.buf, src, oldBits))
			src += oldBits
			dst += newBits
		}
		a.buf = newBuf
	}

	a.bits = newBits
}

// Allocate выделяет обнулённый буфер на count элементов текущей ширины.
// Разрешено только для пустого массива.
func (a *Array) Allocate(count int) error {
	if a.size != 0 {
		return fmt.Errorf("%w: len %d", ErrReallocateNonEmpty, a.size)
	}
	if err := checkCount(count); err != nil {
		return err
	}
	a.alloc(count)
	return nil
}

// Deallocate освобождает буфер и возвращает массив в пустое состояние.
// Ширина элемента сохраняется.
func (a *Array) Deallocate() error {
	if a.size == 0 {
		return ErrDeallocateEmpty
	}
	a.buf = nil
	a.size = 0
	return nil
}

func (a *Array) alloc(count int) {
	if count <= 0 {
		return
	}
	a.buf = makeBuffer(count, a.BitWidth())
	a.size = count
}

// String возвращает отладочное описание массива
func (a *Array) String() string {
	return fmt.Sprintf("packed.Array{len: %d, bits: %d, bytes: %d}", a.size, a.BitWidth(), a.AllocatedBytes())
}

// RequiredBits возвращает минимальное число бит для представления value (не меньше 1)
func RequiredBits(value uint32) int {
	if value == 0 {
		return 1
	}
	return bits.Len32(value)
}

// ByteLen возвращает размер буфера для count элементов ширины width: ceil(count*width/8)
func ByteLen(count, width int) int {
	return (count*width + 7) / 8
}

func makeBuffer(count, width int) []byte {
	n := ByteLen(count, width)
	return make([]byte, n, n+padding)
}

func clampWidth(width int) int {
	if width < 1 {
		return 1
	}
	if width > MaxBits {
		return MaxBits
	}
	return width
}

func mask(width int) uint64 {
	return (uint64(1) << width) - 1
}

// readBits читает слово из buf[off:off+8]; срез берётся в пределах cap, а не len.
func readBits(buf []byte, bitIndex, width int) uint32 {
	off := bitIndex >> 3
	word := binary.LittleEndian.Uint64(buf[off : off+wordBytes])
	return uint32((word >> (bitIndex & 7)) & mask(width))
}

func writeBits(buf []byte, bitIndex, width int, value uint32) {
	off := bitIndex >> 3
	shift := bitIndex & 7
	w := buf[off : off+wordBytes]

	word := binary.LittleEndian.Uint64(w)
	word &^= mask(width) << shift
	word |= (uint64(value) & mask(width)) << shift
	binary.LittleEndian.PutUint64(w, word)
}
