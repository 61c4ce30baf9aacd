package spatial

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func readUint16(data []byte) (uint16, int, error) {
	if len(data) < 2 {
		return 0, 0, errors.New("short leaf")
	}
	return binary.LittleEndian.Uint16(data), 2, nil
}

func TestTreeCodec_RoundTrip(t *testing.T) {
	tree, err := NewTree64[uint16](3)
	require.NoError(t, err)

	points := map[vec.UVec3]uint16{
		{X: 1, Y: 2, Z: 3}:    10,
		{X: 60, Y: 61, Z: 62}: 20,
		{X: 7, Y: 0, Z: 33}:   30,
	}
	for p, v := range points {
		require.NoError(t, tree.Set(p, v))
	}

	data := EncodeTree(tree, appendUint16)
	decoded, err := DecodeTree(data, readUint16)
	require.NoError(t, err)

	assert.Equal(t, tree.Stats(), decoded.Stats())
	for p, v := range points {
		got, ok, err := decoded.Get(p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestTreeCodec_Corrupt(t *testing.T) {
	tree, err := NewTree64[uint16](2)
	require.NoError(t, err)
	require.NoError(t, tree.Set(vec.UVec3{X: 3}, 1))
	data := EncodeTree(tree, appendUint16)

	_, err = DecodeTree(data[:10], readUint16)
	assert.ErrorIs(t, err, ErrCorruptNode)

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	_, err = DecodeTree(bad, readUint16)
	assert.ErrorIs(t, err, ErrCorruptNode)

	bad = append([]byte(nil), data...)
	bad[4] = 0
	_, err = DecodeTree(bad, readUint16)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	// корень указывает за пределы пула узлов
	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[5:], 64)
	_, err = DecodeTree(bad, readUint16)
	assert.ErrorIs(t, err, ErrCorruptNode)

	_, err = DecodeTree(data[:len(data)-1], readUint16)
	assert.Error(t, err)
}
