package registry

import (
	"testing"

	"github.com/annel0/voxelcore/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry[float32] {
	r, err := Build(
		Entry[float32]{Path: "stone", Value: 1.5},
		Entry[float32]{Path: "dirt", Value: 0.5},
		Entry[float32]{Path: "bedrock", Value: -1},
	)
	require.NoError(t, err)
	return r
}

func TestRegistry_Lookups(t *testing.T) {
	r := testRegistry(t)

	assert.Equal(t, 3, r.Len())

	v, ok := r.ByPath("dirt")
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), v)

	v, ok = r.ByID(2)
	assert.True(t, ok)
	assert.Equal(t, float32(-1), v)

	id, ok := r.PathToID("stone")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	path, ok := r.IDToPath(1)
	assert.True(t, ok)
	assert.Equal(t, "dirt", path)

	_, ok = r.ByPath("missing")
	assert.False(t, ok)
	_, ok = r.ByID(3)
	assert.False(t, ok)
	_, ok = r.IDToPath(-1)
	assert.False(t, ok)
}

func TestRegistry_OrderPreserved(t *testing.T) {
	r := testRegistry(t)

	var paths []string
	r.Each(func(id int, path string, _ float32) bool {
		assert.Equal(t, len(paths), id)
		paths = append(paths, path)
		return true
	})
	assert.Equal(t, []string{"stone", "dirt", "bedrock"}, paths)
}

func TestRegistry_BuildErrors(t *testing.T) {
	_, err := Build(Entry[int]{Path: "a"}, Entry[int]{Path: "a"})
	assert.ErrorIs(t, err, ErrDuplicatePath)

	_, err = Build(Entry[int]{Path: ""})
	assert.ErrorIs(t, err, ErrEmptyPath)

	assert.Panics(t, func() { MustBuild(Entry[int]{Path: "x"}, Entry[int]{Path: "x"}) })
}

func TestNamespaces_Resolve(t *testing.T) {
	ns := NewNamespaces[float32]().Add(identity.DefaultNamespace, testRegistry(t))

	v, ok := ns.Resolve(identity.MustParse("stone"))
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), v)

	_, ok = ns.Resolve(identity.MustParse("othermod:stone"))
	assert.False(t, ok)

	r, ok := ns.Registry(identity.DefaultNamespace)
	require.True(t, ok)
	assert.Equal(t, 3, r.Len())
}
