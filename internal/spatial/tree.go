package spatial

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/annel0/voxelcore/internal/morton"
	"github.com/annel0/voxelcore/internal/vec"
)

// MaxDepth наибольшая глубина дерева. Уровню level соответствует 6-битная группа
// кода с номером depth-level; группы выше 63-го бита читаются как ноль.
const MaxDepth = 15

var (
	ErrDepthExceeded        = errors.New("spatial: depth out of range")
	ErrInconsistentNodeKind = errors.New("spatial: inconsistent node kind")
	ErrPositionOutOfRange   = errors.New("spatial: position out of tree range")
)

// rootRef ссылка на корень; остальные узлы адресуются индексом в пуле узлов.
const rootRef = -1

// Tree64 разреженное 64-арное воксельное дерево. Узлы и листья хранятся
// в двух пулах блоками ровно по 64 слота, независимо от числа занятых детей.
//
// Tree64 не потокобезопасен.
type Tree64[T any] struct {
	root   Node64
	nodes  []Node64
	leaves []T
	depth  int
}

// TreeStats сводка по занятой памяти дерева
type TreeStats struct {
	Depth     int
	NodeSlots int
	LeafSlots int
	Clusters  int
	Bricks    int
	Leaves    int
	NodeBytes int
	LeafBytes int
}

// NewTree64 создаёт пустое дерево глубины depth (1..15)
func NewTree64[T any](depth int) (*Tree64[T], error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrDepthExceeded, depth, MaxDepth)
	}
	return &Tree64[T]{depth: depth}, nil
}

// Depth возвращает настроенную глубину
func (t *Tree64[T]) Depth() int {
	return t.depth
}

// Root возвращает копию корневого узла
func (t *Tree64[T]) Root() Node64 {
	return t.root
}

// Set записывает значение на полной глубине дерева
func (t *Tree64[T]) Set(pos vec.UVec3, value T) error {
	return t.SetAtDepth(t.depth, pos, value)
}

// Get читает значение на полной глубине дерева
func (t *Tree64[T]) Get(pos vec.UVec3) (T, bool, error) {
	return t.GetAtDepth(t.depth, pos)
}

// SetAtDepth спускается от корня по группам Morton-кода pos и записывает value
// в лист на уровне target. Пустые узлы по пути превращаются в cluster
// (промежуточные уровни) или brick (последний уровень) с новым блоком из 64 слотов.
func (t *Tree64[T]) SetAtDepth(target int, pos vec.UVec3, value T) error {
	if err := t.checkTarget(target); err != nil {
		return err
	}
	if err := t.checkPosition(pos); err != nil {
		return err
	}

	code := morton.Encode(pos.X, pos.Y, pos.Z)
	ref := rootRef

	for level := 1; level < target; level++ {
		idx := t.childIndex(code, level)
		n := t.node(ref)

		switch {
		case n.IsEmpty():
			off, err := t.allocNodes()
			if err != nil {
				return err
			}
			// пул мог переехать
			n = t.node(ref)
			*n, _ = NewCluster(off, 0)
		case n.IsBrick():
			return fmt.Errorf("%w: brick at level %d before target depth %d", ErrInconsistentNodeKind, level-1, target)
		}

		n.mask |= 1 << uint(idx)
		ref = int(n.Offset()) + idx
	}

	idx := t.childIndex(code, target)
	n := t.node(ref)

	switch {
	case n.IsEmpty():
		off, err := t.allocLeaves()
		if err != nil {
			return err
		}
		*n, _ = NewBrick(off, 0)
	case n.IsCluster():
		return fmt.Errorf("%w: cluster at level %d, target depth %d", ErrInconsistentNodeKind, target-1, target)
	}

	t.leaves[int(n.Offset())+idx] = value
	n.mask |= 1 << uint(idx)
	return nil
}

// GetAtDepth выполняет тот же спуск, что и SetAtDepth, без изменений.
// Второе значение false, если лист на уровне target не записан.
func (t *Tree64[T]) GetAtDepth(target int, pos vec.UVec3) (T, bool, error) {
	var zero T
	if err := t.checkTarget(target); err != nil {
		return zero, false, err
	}
	if err := t.checkPosition(pos); err != nil {
		return zero, false, err
	}

	code := morton.Encode(pos.X, pos.Y, pos.Z)
	n := t.root

	for level := 1; level < target; level++ {
		idx := t.childIndex(code, level)
		if n.IsBrick() {
			return zero, false, fmt.Errorf("%w: brick at level %d before target depth %d", ErrInconsistentNodeKind, level-1, target)
		}
		if !n.HasChildAt(idx) {
			return zero, false, nil
		}
		n = t.nodes[int(n.Offset())+idx]
	}

	idx := t.childIndex(code, target)
	if n.IsCluster() {
		if n.IsEmpty() {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("%w: cluster at level %d, target depth %d", ErrInconsistentNodeKind, target-1, target)
	}
	if !n.HasChildAt(idx) {
		return zero, false, nil
	}
	return t.leaves[int(n.Offset())+idx], true, nil
}

// ForEachLeaf обходит записанные листья в порядке Z-кривой.
// Для листьев, записанных выше полной глубины, младшие группы позиции нулевые.
// Обход прекращается, если fn вернула false.
func (t *Tree64[T]) ForEachLeaf(fn func(depth int, pos vec.UVec3, value T) bool) {
	t.walk(t.root, 1, 0, fn)
}

func (t *Tree64[T]) walk(n Node64, level int, code uint64, fn func(int, vec.UVec3, T) bool) bool {
	if !n.HasChildren() || level > t.depth {
		return true
	}
	off := int(n.Offset())
	shift := uint((t.depth - level) * morton.GroupBits)

	for i := 0; i < MaxChildren; i++ {
		if !n.HasChildAt(i) {
			continue
		}
		c := code | uint64(i)<<shift
		if n.IsBrick() {
			x, y, z := morton.Decode(morton.Code(c))
			if !fn(level, vec.UVec3{X: x, Y: y, Z: z}, t.leaves[off+i]) {
				return false
			}
			continue
		}
		if !t.walk(t.nodes[off+i], level+1, c, fn) {
			return false
		}
	}
	return true
}

// Stats подсчитывает занятые слоты и байты пулов
func (t *Tree64[T]) Stats() TreeStats {
	var zero T
	s := TreeStats{
		Depth:     t.depth,
		NodeSlots: len(t.nodes),
		LeafSlots: len(t.leaves),
		NodeBytes: len(t.nodes) * NodeSize,
		LeafBytes: len(t.leaves) * int(unsafe.Sizeof(zero)),
	}

	count := func(n Node64) {
		if n.IsEmpty() {
			return
		}
		if n.IsBrick() {
			s.Bricks++
			s.Leaves += n.ChildCount()
		} else {
			s.Clusters++
		}
	}
	count(t.root)
	for _, n := range t.nodes {
		count(n)
	}
	return s
}

// Reset освобождает оба пула и очищает корень
func (t *Tree64[T]) Reset() {
	t.root = EmptyNode
	t.nodes = nil
	t.leaves = nil
}

func (t *Tree64[T]) checkTarget(target int) error {
	if target < 1 || target > t.depth {
		return fmt.Errorf("%w: target %d, tree depth %d", ErrDepthExceeded, target, t.depth)
	}
	return nil
}

// AxisLimit число различимых позиций по каждой оси: 4^depth, но не больше
// диапазона Morton-кода.
func (t *Tree64[T]) AxisLimit() uint32 {
	if 2*t.depth >= morton.AxisBits {
		return morton.MaxAxis + 1
	}
	return 1 << uint(2*t.depth)
}

// checkPosition не даёт старшим битам координат молча отбрасываться при спуске
func (t *Tree64[T]) checkPosition(pos vec.UVec3) error {
	limit := t.AxisLimit()
	if pos.X >= limit || pos.Y >= limit || pos.Z >= limit {
		return fmt.Errorf("%w: %v, tree depth %d allows 0..%d per axis", ErrPositionOutOfRange, pos, t.depth, limit-1)
	}
	return nil
}

func (t *Tree64[T]) childIndex(code morton.Code, level int) int {
	return code.Group(t.depth - level)
}

func (t *Tree64[T]) node(ref int) *Node64 {
	if ref == rootRef {
		return &t.root
	}
	return &t.nodes[ref]
}

func (t *Tree64[T]) allocNodes() (uint32, error) {
	off := len(t.nodes)
	if off+MaxChildren-1 > MaxOffset {
		return 0, fmt.Errorf("%w: node pool at %d slots", ErrOffsetOverflow, off)
	}
	t.nodes = append(t.nodes, make([]Node64, MaxChildren)...)
	return uint32(off), nil
}

func (t *Tree64[T]) allocLeaves() (uint32, error) {
	off := len(t.leaves)
	if off+MaxChildren-1 > MaxOffset {
		return 0, fmt.Errorf("%w: leaf pool at %d slots", ErrOffsetOverflow, off)
	}
	t.leaves = append(t.leaves, make([]T, MaxChildren)...)
	return uint32(off), nil
}
