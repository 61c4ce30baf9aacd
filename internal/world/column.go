package world

import (
	"errors"
	"fmt"

	"github.com/annel0/voxelcore/internal/vec"
)

// MaxColumnHeight максимальное число секций в колонне
const MaxColumnHeight = 64

var ErrInvalidHeight = errors.New("world: column height out of range")

// Column вертикальная стопка секций над одной клеткой 16x16.
// Секции создаются при первой записи; незаписанные позиции возвращают значение по умолчанию.
type Column[T comparable] struct {
	coords   vec.Vec2
	sections []*Section[T]
	def      T
}

// NewColumn создаёт колонну из height секций со значением по умолчанию def
func NewColumn[T comparable](coords vec.Vec2, height int, def T) (*Column[T], error) {
	if height < 1 || height > MaxColumnHeight {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeight, height)
	}
	return &Column[T]{
		coords:   coords,
		sections: make([]*Section[T], height),
		def:      def,
	}, nil
}

// Coords возвращает координаты колонны
func (c *Column[T]) Coords() vec.Vec2 {
	return c.coords
}

// Height возвращает число секций
func (c *Column[T]) Height() int {
	return len(c.sections)
}

// Default возвращает значение незаписанных позиций
func (c *Column[T]) Default() T {
	return c.def
}

// Set записывает значение; x и z в [0, 16), y в [0, Height*16)
func (c *Column[T]) Set(x, y, z int, value T) error {
	idx, local, err := c.locate(x, y, z)
	if err != nil {
		return err
	}

	s := c.sections[idx]
	if s == nil {
		s = NewSection[T](idx)
		// Первая запись палитры отвечает за все ещё не тронутые позиции
		if err := s.Set(vec.UVec3{}, c.def); err != nil {
			return err
		}
		c.sections[idx] = s
	}
	return s.Set(local, value)
}

// Get возвращает значение в позиции
func (c *Column[T]) Get(x, y, z int) (T, error) {
	idx, local, err := c.locate(x, y, z)
	if err != nil {
		return c.def, err
	}

	s := c.sections[idx]
	if s == nil {
		return c.def, nil
	}
	v, ok, err := s.Get(local)
	if err != nil || !ok {
		return c.def, err
	}
	return v, nil
}

// Section возвращает секцию по номеру или nil, если она не создана
func (c *Column[T]) Section(y int) *Section[T] {
	if y < 0 || y >= len(c.sections) {
		return nil
	}
	return c.sections[y]
}

// SetSection заменяет секцию; номер берётся из s.Y()
func (c *Column[T]) SetSection(s *Section[T]) error {
	if s.Y() < 0 || s.Y() >= len(c.sections) {
		return fmt.Errorf("%w: section %d of %d", ErrInvalidHeight, s.Y(), len(c.sections))
	}
	c.sections[s.Y()] = s
	return nil
}

// Sections возвращает созданные секции снизу вверх
func (c *Column[T]) Sections() []*Section[T] {
	out := make([]*Section[T], 0, len(c.sections))
	for _, s := range c.sections {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Compact сжимает палитры всех созданных секций
func (c *Column[T]) Compact() {
	for _, s := range c.sections {
		if s != nil {
			s.Compact()
		}
	}
}

// PaletteEntries возвращает суммарный размер палитр
func (c *Column[T]) PaletteEntries() int {
	n := 0
	for _, s := range c.sections {
		if s != nil {
			n += s.PaletteLen()
		}
	}
	return n
}

// AllocatedBytes возвращает суммарный размер буферов индексов
func (c *Column[T]) AllocatedBytes() int {
	n := 0
	for _, s := range c.sections {
		if s != nil {
			n += s.AllocatedBytes()
		}
	}
	return n
}

func (c *Column[T]) locate(x, y, z int) (int, vec.UVec3, error) {
	if x < 0 || x >= SectionSize || z < 0 || z >= SectionSize || y < 0 || y >= len(c.sections)*SectionSize {
		return 0, vec.UVec3{}, fmt.Errorf("%w: column (%d, %d, %d)", ErrPositionOutOfRange, x, y, z)
	}
	return y / SectionSize, vec.UVec3{X: uint32(x), Y: uint32(y % SectionSize), Z: uint32(z)}, nil
}
