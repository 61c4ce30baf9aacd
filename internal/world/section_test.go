package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxelcore/internal/packed"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGet[T comparable](t *testing.T, s *Section[T], pos vec.UVec3) (T, bool) {
	t.Helper()
	v, ok, err := s.Get(pos)
	require.NoError(t, err)
	return v, ok
}

func TestSection_ZeroDefaultSlot(t *testing.T) {
	s := NewSection[int](0)

	_, ok := mustGet(t, s, vec.UVec3{})
	assert.False(t, ok, "пустая секция ничего не возвращает")

	require.NoError(t, s.Set(vec.UVec3{X: 1, Y: 2, Z: 3}, 7))

	v, ok := mustGet(t, s, vec.UVec3{X: 1, Y: 2, Z: 3})
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = mustGet(t, s, vec.UVec3{})
	assert.True(t, ok, "нулевой индекс указывает на первую запись палитры")
	assert.Equal(t, 7, v)
}

func TestSection_NoDedupOnSet(t *testing.T) {
	s := NewSection[string](3)
	assert.Equal(t, 3, s.Y())
	assert.True(t, s.IsEmpty())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(vec.UVec3{X: uint32(i)}, "stone"))
	}
	assert.Equal(t, 5, s.PaletteLen(), "каждая запись добавляет элемент палитры")
	assert.False(t, s.IsEmpty())
	assert.Equal(t, packed.ByteLen(SectionLen, s.BitWidth()), s.AllocatedBytes())
}

func TestSection_WidthGrowsWithPalette(t *testing.T) {
	s := NewSection[int](0)
	for i := 0; i < 300; i++ {
		pos := vec.UVec3{X: uint32(i % 16), Y: uint32(i / 256), Z: uint32(i / 16 % 16)}
		require.NoError(t, s.Set(pos, i))
	}
	assert.Equal(t, 9, s.BitWidth(), "299 требует 9 бит")

	for i := 0; i < 300; i++ {
		pos := vec.UVec3{X: uint32(i % 16), Y: uint32(i / 256), Z: uint32(i / 16 % 16)}
		v, ok := mustGet(t, s, pos)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestSection_OutOfRange(t *testing.T) {
	s := NewSection[int](0)

	err := s.Set(vec.UVec3{X: 16}, 1)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.ErrorIs(t, err, packed.ErrIndexOutOfBounds)

	_, _, err = s.Get(vec.UVec3{Z: 99})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.True(t, s.IsEmpty(), "ошибка не меняет секцию")
}

func TestSection_CompactPreservesLookups(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := NewSection[uint16](0)

	for i := 0; i < 2000; i++ {
		pos := vec.UVec3{X: uint32(rng.Intn(16)), Y: uint32(rng.Intn(16)), Z: uint32(rng.Intn(16))}
		require.NoError(t, s.Set(pos, uint16(rng.Intn(4))))
	}

	before := make([]uint16, SectionLen)
	for i := range before {
		pos := vec.UVec3{X: uint32(i % 16), Y: uint32(i / 256), Z: uint32(i / 16 % 16)}
		before[i], _ = mustGet(t, s, pos)
	}
	assert.Equal(t, 2000, s.PaletteLen())

	s.Compact()

	assert.LessOrEqual(t, s.PaletteLen(), 5, "четыре значения плюс, возможно, первая запись")
	assert.LessOrEqual(t, s.BitWidth(), 3)
	for i := range before {
		pos := vec.UVec3{X: uint32(i % 16), Y: uint32(i / 256), Z: uint32(i / 16 % 16)}
		v, ok := mustGet(t, s, pos)
		require.True(t, ok)
		assert.Equal(t, before[i], v, "позиция %d", i)
	}

	require.NoError(t, s.Set(vec.UVec3{X: 5, Y: 5, Z: 5}, 9))
	v, _ := mustGet(t, s, vec.UVec3{X: 5, Y: 5, Z: 5})
	assert.Equal(t, uint16(9), v, "запись после сжатия работает")
}

func TestSection_CompactUniform(t *testing.T) {
	s := NewSection[int](0)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set(vec.UVec3{}, 4))
	}
	s.Compact()

	// Все позиции кроме (0,0,0) указывают на первую запись, то есть тоже на 4
	assert.Equal(t, 1, s.PaletteLen())
	assert.Equal(t, 1, s.BitWidth())
	v, ok := mustGet(t, s, vec.UVec3{X: 15, Y: 15, Z: 15})
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestRestoreSection(t *testing.T) {
	s := NewSection[int](2)
	require.NoError(t, s.Set(vec.UVec3{X: 1}, 10))
	require.NoError(t, s.Set(vec.UVec3{X: 2}, 20))

	data, err := s.Indices().MarshalBinary()
	require.NoError(t, err)
	var indices packed.Array
	require.NoError(t, indices.UnmarshalBinary(data))

	restored, err := RestoreSection(2, s.Palette(), &indices)
	require.NoError(t, err)
	v, _ := mustGet(t, restored, vec.UVec3{X: 2})
	assert.Equal(t, 20, v)

	_, err = RestoreSection(2, []int{1}, &indices)
	assert.Error(t, err, "индекс за пределами палитры")

	short, err := packed.NewWithWidth(10, 2)
	require.NoError(t, err)
	_, err = RestoreSection(0, []int{1}, short)
	assert.Error(t, err)

	empty, err := RestoreSection[int](0, nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}
