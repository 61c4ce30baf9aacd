package packed

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// headerSize: 4 байта числа элементов (LE) и 1 байт ширины.
const headerSize = 5

var ErrCorruptEncoding = errors.New("packed: corrupt encoding")

// AppendBinary дописывает к b заголовок и сырой буфер массива.
// Буфер пишется как есть: элемент i лежит по битовому смещению i*width,
// порядок бит внутри слова little-endian.
func (a *Array) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, uint32(a.size))
	b = append(b, byte(a.BitWidth()))
	if a.size > 0 {
		b = append(b, a.buf...)
	}
	return b, nil
}

// MarshalBinary реализует encoding.BinaryMarshaler
func (a *Array) MarshalBinary() ([]byte, error) {
	return a.AppendBinary(make([]byte, 0, headerSize+a.AllocatedBytes()))
}

// UnmarshalBinary реализует encoding.BinaryUnmarshaler
func (a *Array) UnmarshalBinary(data []byte) error {
	_, err := a.decode(data)
	return err
}

// Decode читает массив из начала data и возвращает число прочитанных байт.
func Decode(data []byte) (*Array, int, error) {
	a := &Array{}
	n, err := a.decode(data)
	if err != nil {
		return nil, 0, err
	}
	return a, n, nil
}

func (a *Array) decode(data []byte) (int, error) {
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptEncoding, len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[0:4]))
	width := int(data[4])
	if err := checkWidth(width); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptEncoding, err)
	}

	n := ByteLen(count, width)
	if len(data)-headerSize < n {
		return 0, fmt.Errorf("%w: want %d payload bytes, have %d", ErrCorruptEncoding, n, len(data)-headerSize)
	}

	a.bits = width
	a.size = 0
	a.buf = nil
	if count > 0 {
		a.buf = makeBuffer(count, width)
		copy(a.buf, data[headerSize:headerSize+n])
		a.size = count
	}
	return headerSize + n, nil
}
