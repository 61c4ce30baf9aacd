package spatial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

const (
	// MaxOffset наибольшее смещение, помещающееся в 31 бит
	MaxOffset = 1<<31 - 1
	// MaxChildren число дочерних слотов узла
	MaxChildren = 64
	// NodeSize размер узла в бинарном представлении: 4 байта смещения и 8 байт маски
	NodeSize = 12

	brickTag   = uint32(1) << 31
	offsetMask = brickTag - 1
)

var (
	ErrOffsetOverflow       = errors.New("spatial: child offset exceeds 31 bits")
	ErrChildIndexOutOfRange = errors.New("spatial: child index out of range")
	ErrCorruptNode          = errors.New("spatial: corrupt node encoding")
)

// Node64 описывает узел 64-арного дерева: тегированное смещение блока детей
// в пуле и маску занятости. Старший бит смещения отличает brick (дети - листья)
// от cluster (дети - узлы).
//
// Бит маски означает только то, что ребёнок учтён; содержимое слота может
// оставаться значением по умолчанию.
type Node64 struct {
	ptr  uint32
	mask uint64
}

// EmptyNode узел без детей
var EmptyNode = Node64{}

// NewBrick создаёт узел, чьи дети - листья в пуле листьев
func NewBrick(offset uint32, mask uint64) (Node64, error) {
	return newNode(true, offset, mask)
}

// NewCluster создаёт узел, чьи дети - узлы в пуле узлов
func NewCluster(offset uint32, mask uint64) (Node64, error) {
	return newNode(false, offset, mask)
}

func newNode(brick bool, offset uint32, mask uint64) (Node64, error) {
	if offset > MaxOffset {
		return Node64{}, fmt.Errorf("%w: %d", ErrOffsetOverflow, offset)
	}
	ptr := offset
	if brick {
		ptr |= brickTag
	}
	return Node64{ptr: ptr, mask: mask}, nil
}

// IsEmpty сообщает, что у узла нет ни смещения, ни детей
func (n Node64) IsEmpty() bool {
	return n.ptr == 0 && n.mask == 0
}

// IsBrick сообщает, что дети узла - листья
func (n Node64) IsBrick() bool {
	return n.ptr&brickTag != 0
}

// IsCluster сообщает, что дети узла - узлы
func (n Node64) IsCluster() bool {
	return n.ptr&brickTag == 0
}

// HasChildren сообщает, что в маске есть хотя бы один бит
func (n Node64) HasChildren() bool {
	return n.mask != 0
}

// HasChildAt проверяет бит i маски. Для i вне [0, 64) возвращает false.
func (n Node64) HasChildAt(i int) bool {
	if i < 0 || i >= MaxChildren {
		return false
	}
	return n.mask&(1<<uint(i)) != 0
}

// ChildCount возвращает число установленных бит маски
func (n Node64) ChildCount() int {
	return bits.OnesCount64(n.mask)
}

// Offset возвращает смещение блока детей без тега
func (n Node64) Offset() uint32 {
	return n.ptr & offsetMask
}

// Mask возвращает маску занятости
func (n Node64) Mask() uint64 {
	return n.mask
}

// SetOffset заменяет смещение, сохраняя тег
func (n *Node64) SetOffset(offset uint32) error {
	if offset > MaxOffset {
		return fmt.Errorf("%w: %d", ErrOffsetOverflow, offset)
	}
	n.ptr = n.ptr&brickTag | offset
	return nil
}

// SetChildBit устанавливает или снимает бит i маски
func (n *Node64) SetChildBit(i int, present bool) error {
	if i < 0 || i >= MaxChildren {
		return fmt.Errorf("%w: %d", ErrChildIndexOutOfRange, i)
	}
	if present {
		n.mask |= 1 << uint(i)
	} else {
		n.mask &^= 1 << uint(i)
	}
	return nil
}

func (n Node64) String() string {
	kind := "cluster"
	if n.IsBrick() {
		kind = "brick"
	}
	return fmt.Sprintf("%s{offset: %d, mask: %#016x}", kind, n.Offset(), n.mask)
}

// AppendBinary дописывает 12 байт узла: тегированное смещение (LE uint32),
// затем маску (LE uint64), без выравнивания.
func (n Node64) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, n.ptr)
	b = binary.LittleEndian.AppendUint64(b, n.mask)
	return b, nil
}

// MarshalBinary реализует encoding.BinaryMarshaler
func (n Node64) MarshalBinary() ([]byte, error) {
	return n.AppendBinary(make([]byte, 0, NodeSize))
}

// UnmarshalBinary реализует encoding.BinaryUnmarshaler
func (n *Node64) UnmarshalBinary(data []byte) error {
	if len(data) != NodeSize {
		return fmt.Errorf("%w: want %d bytes, have %d", ErrCorruptNode, NodeSize, len(data))
	}
	n.ptr = binary.LittleEndian.Uint32(data[0:4])
	n.mask = binary.LittleEndian.Uint64(data[4:NodeSize])
	return nil
}
