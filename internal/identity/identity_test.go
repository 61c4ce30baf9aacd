package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterner_SameHandle(t *testing.T) {
	in := NewInterner()

	a := in.Intern("stone")
	b := in.Intern("stone")
	c := in.Intern("dirt")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, Handle(0), in.Intern(""))
	assert.Equal(t, 3, in.Len())

	s, ok := in.Lookup(c)
	assert.True(t, ok)
	assert.Equal(t, "dirt", s)

	_, ok = in.Lookup(Handle(100))
	assert.False(t, ok)
}

func TestInterner_Concurrent(t *testing.T) {
	in := NewInterner()
	words := []string{"a", "b", "c", "d", "e"}

	var wg sync.WaitGroup
	handles := make([][]Handle, 8)
	for g := range handles {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for _, w := range words {
				handles[g] = append(handles[g], in.Intern(w))
			}
		}(g)
	}
	wg.Wait()

	for g := 1; g < len(handles); g++ {
		assert.Equal(t, handles[0], handles[g])
	}
	assert.Equal(t, len(words)+1, in.Len())
}

func TestParse(t *testing.T) {
	id, err := Parse("cobblestone")
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, id.Namespace())
	assert.Equal(t, "cobblestone", id.Path())
	assert.Equal(t, "voxelcore:cobblestone", id.String())

	id, err = Parse("mymod:blocks/oak_log")
	require.NoError(t, err)
	assert.Equal(t, "mymod", id.Namespace())
	assert.Equal(t, "blocks/oak_log", id.Path())

	assert.Equal(t, MustParse("voxelcore:stone"), MustParse("stone"), "интернированные идентификаторы сравниваются через ==")
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "bad ns:stone", "ns:bad path", "my/mod:stone", "ns:", ":path", "a:b:c"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidResourceID, s)
	}
	assert.Panics(t, func() { MustParse("no spaces") })
}

func TestResourceID_Text(t *testing.T) {
	var id ResourceID
	assert.True(t, id.IsZero())

	require.NoError(t, id.UnmarshalText([]byte("mymod:grass")))
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mymod:grass", string(text))

	assert.Error(t, id.UnmarshalText([]byte("b@d")))
}
