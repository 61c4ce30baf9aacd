package spatial

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxelcore/internal/morton"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTree64_DepthBounds(t *testing.T) {
	_, err := NewTree64[uint16](0)
	assert.ErrorIs(t, err, ErrDepthExceeded)
	_, err = NewTree64[uint16](MaxDepth + 1)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	tree, err := NewTree64[uint16](MaxDepth)
	require.NoError(t, err)
	assert.Equal(t, MaxDepth, tree.Depth())
}

func TestTree64_SetGetFullDepth(t *testing.T) {
	tree, err := NewTree64[uint32](3)
	require.NoError(t, err)

	pos := vec.UVec3{X: 5, Y: 17, Z: 40}
	require.NoError(t, tree.Set(pos, 77))

	got, ok, err := tree.Get(pos)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(77), got)

	_, ok, err = tree.Get(vec.UVec3{X: 6, Y: 17, Z: 40})
	require.NoError(t, err)
	assert.False(t, ok, "соседний лист в том же brick не записан")

	_, ok, err = tree.Get(vec.UVec3{X: 60, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.False(t, ok, "нетронутая ветка")
}

func TestTree64_UntouchedTree(t *testing.T) {
	tree, err := NewTree64[int](4)
	require.NoError(t, err)

	_, ok, err := tree.Get(vec.UVec3{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, tree.Root().IsEmpty())
}

func TestTree64_RandomWrites(t *testing.T) {
	tree, err := NewTree64[uint32](4)
	require.NoError(t, err)

	// глубина 4 потребляет 24 младших бита кода, то есть по 8 бит на ось
	rng := rand.New(rand.NewSource(7))
	want := make(map[vec.UVec3]uint32)
	for i := 0; i < 2000; i++ {
		p := vec.UVec3{X: uint32(rng.Intn(256)), Y: uint32(rng.Intn(256)), Z: uint32(rng.Intn(256))}
		v := rng.Uint32()
		require.NoError(t, tree.Set(p, v))
		want[p] = v
	}

	for p, v := range want {
		got, ok, err := tree.Get(p)
		require.NoError(t, err)
		require.True(t, ok, "позиция %v", p)
		assert.Equal(t, v, got)
	}
}

func TestTree64_BlockAllocation(t *testing.T) {
	tree, err := NewTree64[uint8](2)
	require.NoError(t, err)

	require.NoError(t, tree.Set(vec.UVec3{X: 0}, 1))
	stats := tree.Stats()
	assert.Equal(t, MaxChildren, stats.NodeSlots, "один блок узлов под корнем")
	assert.Equal(t, MaxChildren, stats.LeafSlots, "один блок листьев")
	assert.Equal(t, 1, stats.Clusters)
	assert.Equal(t, 1, stats.Bricks)
	assert.Equal(t, 1, stats.Leaves)
	assert.Equal(t, MaxChildren*NodeSize, stats.NodeBytes)
	assert.Equal(t, MaxChildren, stats.LeafBytes)

	// тот же brick: новых блоков нет
	require.NoError(t, tree.Set(vec.UVec3{X: 1}, 2))
	stats = tree.Stats()
	assert.Equal(t, MaxChildren, stats.LeafSlots)
	assert.Equal(t, 2, stats.Leaves)

	// другая ветка корня: новый brick, узлы корня уже выделены
	require.NoError(t, tree.Set(vec.UVec3{X: 4}, 3))
	stats = tree.Stats()
	assert.Equal(t, MaxChildren, stats.NodeSlots)
	assert.Equal(t, 2*MaxChildren, stats.LeafSlots)
	assert.Equal(t, 2, stats.Bricks)
}

func TestTree64_ShallowTarget(t *testing.T) {
	tree, err := NewTree64[string](3)
	require.NoError(t, err)

	// на уровне 2 младшие 6 бит кода не участвуют
	require.NoError(t, tree.SetAtDepth(2, vec.UVec3{X: 4, Y: 4, Z: 4}, "coarse"))

	got, ok, err := tree.GetAtDepth(2, vec.UVec3{X: 5, Y: 7, Z: 6})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "coarse", got)

	_, _, err = tree.GetAtDepth(3, vec.UVec3{X: 4, Y: 4, Z: 4})
	assert.ErrorIs(t, err, ErrInconsistentNodeKind)

	err = tree.SetAtDepth(3, vec.UVec3{X: 4, Y: 4, Z: 4}, "fine")
	assert.ErrorIs(t, err, ErrInconsistentNodeKind, "brick встречен раньше целевой глубины")
}

func TestTree64_ClusterAtTarget(t *testing.T) {
	tree, err := NewTree64[int](3)
	require.NoError(t, err)

	require.NoError(t, tree.Set(vec.UVec3{X: 1, Y: 1, Z: 1}, 9))

	err = tree.SetAtDepth(2, vec.UVec3{X: 1, Y: 1, Z: 1}, 10)
	assert.ErrorIs(t, err, ErrInconsistentNodeKind)

	_, _, err = tree.GetAtDepth(2, vec.UVec3{X: 1, Y: 1, Z: 1})
	assert.ErrorIs(t, err, ErrInconsistentNodeKind)
}

func TestTree64_DepthExceeded(t *testing.T) {
	tree, err := NewTree64[int](2)
	require.NoError(t, err)

	assert.ErrorIs(t, tree.SetAtDepth(3, vec.UVec3{}, 1), ErrDepthExceeded)
	assert.ErrorIs(t, tree.SetAtDepth(0, vec.UVec3{}, 1), ErrDepthExceeded)
	_, _, err = tree.GetAtDepth(3, vec.UVec3{})
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestTree64_PositionOutOfRange(t *testing.T) {
	tree, err := NewTree64[int](2)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), tree.AxisLimit())

	// x=16 не помещается в 4 бита на ось и не должен попасть в лист (0,0,0)
	err = tree.Set(vec.UVec3{X: 16}, 5)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.ErrorIs(t, tree.SetAtDepth(1, vec.UVec3{Z: 40}, 5), ErrPositionOutOfRange)
	assert.True(t, tree.Root().IsEmpty(), "отклонённая запись ничего не выделяет")

	_, ok, err := tree.Get(vec.UVec3{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tree.Set(vec.UVec3{}, 7))
	_, ok, err = tree.Get(vec.UVec3{X: 16})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.False(t, ok)
	_, _, err = tree.GetAtDepth(1, vec.UVec3{Y: 1 << 20})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	got, ok, err := tree.Get(vec.UVec3{X: 15, Y: 15, Z: 15})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, got)

	deep, err := NewTree64[int](11)
	require.NoError(t, err)
	assert.Equal(t, uint32(morton.MaxAxis+1), deep.AxisLimit())
	assert.ErrorIs(t, deep.Set(vec.UVec3{X: morton.MaxAxis + 1}, 1), ErrPositionOutOfRange)
}

func TestTree64_OverwriteAndIdempotentGet(t *testing.T) {
	tree, err := NewTree64[int](2)
	require.NoError(t, err)

	p := vec.UVec3{X: 3, Y: 2, Z: 1}
	require.NoError(t, tree.Set(p, 1))
	require.NoError(t, tree.Set(p, 2))

	before := tree.Stats()
	for i := 0; i < 3; i++ {
		got, ok, err := tree.Get(p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, got)
	}
	assert.Equal(t, before, tree.Stats())
}

func TestTree64_MaxDepthUsesHighLevelsAsZero(t *testing.T) {
	tree, err := NewTree64[int](MaxDepth)
	require.NoError(t, err)

	p := vec.UVec3{X: morton.MaxAxis, Y: 12345, Z: 1}
	require.NoError(t, tree.Set(p, 5))
	got, ok, err := tree.Get(p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, got)
}

func TestTree64_ForEachLeaf(t *testing.T) {
	tree, err := NewTree64[int](3)
	require.NoError(t, err)

	points := []vec.UVec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 63, Y: 2, Z: 9}, {X: 20, Y: 40, Z: 60}}
	for i, p := range points {
		require.NoError(t, tree.Set(p, i))
	}

	seen := make(map[vec.UVec3]int)
	var prev morton.Code
	tree.ForEachLeaf(func(depth int, pos vec.UVec3, value int) bool {
		assert.Equal(t, 3, depth)
		code := morton.Encode(pos.X, pos.Y, pos.Z)
		assert.False(t, code.Less(prev), "обход в порядке Z-кривой")
		prev = code
		seen[pos] = value
		return true
	})

	require.Len(t, seen, len(points))
	for i, p := range points {
		assert.Equal(t, i, seen[p])
	}

	visited := 0
	tree.ForEachLeaf(func(int, vec.UVec3, int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestTree64_Reset(t *testing.T) {
	tree, err := NewTree64[int](2)
	require.NoError(t, err)
	require.NoError(t, tree.Set(vec.UVec3{X: 9}, 1))

	tree.Reset()
	assert.Equal(t, TreeStats{Depth: 2}, tree.Stats())
	_, ok, err := tree.Get(vec.UVec3{X: 9})
	require.NoError(t, err)
	assert.False(t, ok)
}
