package spatial

import (
	"encoding/binary"
	"fmt"
)

// Формат снимка дерева:
//
//	magic "SV64" | depth (1 байт) | root (12 байт)
//	число узлов (LE uint32) | узлы по 12 байт
//	число листьев (LE uint32) | листья в формате appendLeaf
var treeMagic = [4]byte{'S', 'V', '6', '4'}

// LeafAppender дописывает лист к буферу
type LeafAppender[T any] func(b []byte, leaf T) []byte

// LeafReader читает лист из начала data и возвращает число прочитанных байт
type LeafReader[T any] func(data []byte) (T, int, error)

// EncodeTree сериализует дерево целиком, включая неиспользуемые слоты блоков.
func EncodeTree[T any](t *Tree64[T], appendLeaf LeafAppender[T]) []byte {
	b := make([]byte, 0, 4+1+NodeSize+8+len(t.nodes)*NodeSize)
	b = append(b, treeMagic[:]...)
	b = append(b, byte(t.depth))
	b, _ = t.root.AppendBinary(b)

	b = binary.LittleEndian.AppendUint32(b, uint32(len(t.nodes)))
	for _, n := range t.nodes {
		b, _ = n.AppendBinary(b)
	}

	b = binary.LittleEndian.AppendUint32(b, uint32(len(t.leaves)))
	for _, leaf := range t.leaves {
		b = appendLeaf(b, leaf)
	}
	return b
}

// DecodeTree восстанавливает дерево из снимка EncodeTree и проверяет,
// что каждый непустой узел указывает на целый блок внутри своего пула.
func DecodeTree[T any](data []byte, readLeaf LeafReader[T]) (*Tree64[T], error) {
	const header = 4 + 1 + NodeSize + 4
	if len(data) < header {
		return nil, fmt.Errorf("%w: short tree header", ErrCorruptNode)
	}
	if [4]byte(data[0:4]) != treeMagic {
		return nil, fmt.Errorf("%w: bad tree magic %q", ErrCorruptNode, data[0:4])
	}

	t, err := NewTree64[T](int(data[4]))
	if err != nil {
		return nil, err
	}
	if err := t.root.UnmarshalBinary(data[5 : 5+NodeSize]); err != nil {
		return nil, err
	}

	pos := 5 + NodeSize
	nodeCount := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if nodeCount%MaxChildren != 0 || len(data)-pos < nodeCount*NodeSize {
		return nil, fmt.Errorf("%w: node pool of %d slots", ErrCorruptNode, nodeCount)
	}
	t.nodes = make([]Node64, nodeCount)
	for i := range t.nodes {
		if err := t.nodes[i].UnmarshalBinary(data[pos : pos+NodeSize]); err != nil {
			return nil, err
		}
		pos += NodeSize
	}

	if len(data)-pos < 4 {
		return nil, fmt.Errorf("%w: missing leaf pool", ErrCorruptNode)
	}
	leafCount := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if leafCount%MaxChildren != 0 {
		return nil, fmt.Errorf("%w: leaf pool of %d slots", ErrCorruptNode, leafCount)
	}
	t.leaves = make([]T, leafCount)
	for i := range t.leaves {
		leaf, n, err := readLeaf(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		t.leaves[i] = leaf
		pos += n
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree64[T]) validate() error {
	check := func(n Node64) error {
		if n.IsEmpty() {
			return nil
		}
		limit := len(t.nodes)
		if n.IsBrick() {
			limit = len(t.leaves)
		}
		if int(n.Offset())+MaxChildren > limit {
			return fmt.Errorf("%w: %s points past pool of %d slots", ErrCorruptNode, n, limit)
		}
		return nil
	}

	if err := check(t.root); err != nil {
		return err
	}
	for _, n := range t.nodes {
		if err := check(n); err != nil {
			return err
		}
	}
	return nil
}
