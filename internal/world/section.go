package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/packed"
	"github.com/annel0/voxelcore/internal/vec"
)

// Размеры секции
const (
	SectionSize = 16
	SectionLen  = SectionSize * SectionSize * SectionSize
)

var (
	ErrPositionOutOfRange = fmt.Errorf("world: section position out of range: %w", packed.ErrIndexOutOfBounds)
	ErrPaletteFull        = errors.New("world: section palette is full")
)

// Section хранит куб 16x16x16 значений в виде палитры и упакованных индексов в неё.
//
// Палитра только дополняется: каждый Set добавляет новую запись, даже если
// такое значение уже есть. Compact убирает повторы и неиспользуемые записи.
// Массив индексов создаётся при первой записи и заполнен нулями, поэтому
// незаписанные позиции указывают на первую запись палитры.
type Section[T comparable] struct {
	indices *packed.Array
	palette []T
	y       int
}

// NewSection создаёт пустую секцию с вертикальным номером y
func NewSection[T comparable](y int) *Section[T] {
	return &Section[T]{
		indices: &packed.Array{},
		y:       y,
	}
}

// Y возвращает вертикальный номер секции
func (s *Section[T]) Y() int {
	return s.y
}

// Set записывает значение в позицию
func (s *Section[T]) Set(pos vec.UVec3, value T) error {
	idx, err := flatIndex(pos)
	if err != nil {
		return err
	}
	if uint64(len(s.palette)) >= math.MaxUint32 {
		return ErrPaletteFull
	}

	if s.indices.IsEmpty() {
		if err := s.indices.Allocate(SectionLen); err != nil {
			return err
		}
	}

	slot := uint32(len(s.palette))
	s.palette = append(s.palette, value)
	s.indices.EnsureBitWidth(slot)
	s.indices.SetUnchecked(idx, slot)
	return nil
}

// Get возвращает значение в позиции. ok == false, если в секцию ещё ничего не писали.
// До первой материализации индексов любая позиция отвечает первой записью палитры.
func (s *Section[T]) Get(pos vec.UVec3) (value T, ok bool, err error) {
	idx, err := flatIndex(pos)
	if err != nil {
		return value, false, err
	}

	if s.indices.IsEmpty() {
		if len(s.palette) == 0 {
			return value, false, nil
		}
		return s.palette[0], true, nil
	}

	slot := s.indices.GetUnchecked(idx)
	if int(slot) >= len(s.palette) {
		return value, false, nil
	}
	return s.palette[slot], true, nil
}

// Compact удаляет из палитры повторы и записи, на которые не ссылается ни одна позиция.
// Результат Get для любой позиции не меняется. Ширина индексов сужается до минимальной.
func (s *Section[T]) Compact() {
	if s.indices.IsEmpty() {
		if len(s.palette) > 1 {
			s.palette = s.palette[:1:1]
		}
		return
	}

	remap := make(map[T]uint32, len(s.palette))
	palette := make([]T, 0, len(s.palette))
	slots := make([]uint32, SectionLen)
	for i := 0; i < SectionLen; i++ {
		v := s.palette[s.indices.GetUnchecked(i)]
		slot, seen := remap[v]
		if !seen {
			slot = uint32(len(palette))
			remap[v] = slot
			palette = append(palette, v)
		}
		slots[i] = slot
	}

	width := packed.RequiredBits(uint32(len(palette) - 1))
	s.indices.GrowBitWidth(width - s.indices.BitWidth())
	for i, slot := range slots {
		s.indices.SetUnchecked(i, slot)
	}
	s.palette = palette
}

// PaletteLen возвращает число записей палитры
func (s *Section[T]) PaletteLen() int {
	return len(s.palette)
}

// IsEmpty сообщает, что в секцию ещё ничего не писали
func (s *Section[T]) IsEmpty() bool {
	return len(s.palette) == 0
}

// BitWidth возвращает текущую ширину индекса палитры
func (s *Section[T]) BitWidth() int {
	return s.indices.BitWidth()
}

// AllocatedBytes возвращает размер буфера индексов
func (s *Section[T]) AllocatedBytes() int {
	return s.indices.AllocatedBytes()
}

// Palette возвращает копию палитры
func (s *Section[T]) Palette() []T {
	out := make([]T, len(s.palette))
	copy(out, s.palette)
	return out
}

// Indices возвращает упакованный массив индексов только для чтения.
// Используется кодеком снимков.
func (s *Section[T]) Indices() *packed.Array {
	return s.indices
}

// RestoreSection собирает секцию из палитры и массива индексов.
// indices должен быть пустым либо содержать SectionLen элементов, ссылающихся в palette.
func RestoreSection[T comparable](y int, palette []T, indices *packed.Array) (*Section[T], error) {
	if indices == nil {
		indices = &packed.Array{}
	}
	if !indices.IsEmpty() {
		if indices.Len() != SectionLen {
			return nil, fmt.Errorf("section %d: %d indices, want %d", y, indices.Len(), SectionLen)
		}
		for i := 0; i < SectionLen; i++ {
			if slot := indices.GetUnchecked(i); int(slot) >= len(palette) {
				return nil, fmt.Errorf("section %d: slot %d points past palette of %d", y, slot, len(palette))
			}
		}
	}
	return &Section[T]{indices: indices, palette: palette, y: y}, nil
}

func flatIndex(pos vec.UVec3) (int, error) {
	if !pos.AllLess(SectionSize) {
		return 0, fmt.Errorf("%w: (%d, %d, %d)", ErrPositionOutOfRange, pos.X, pos.Y, pos.Z)
	}
	return int(pos.X + pos.Z*SectionSize + pos.Y*SectionSize*SectionSize), nil
}
