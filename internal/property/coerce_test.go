package property

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/prefs/internal/plist"
)

type level int32

type tagMap map[string]bool

func TestDecode(t *testing.T) {
	t.Run("named kinds", func(t *testing.T) {
		got, ok := decode[level](plist.Int(3))
		assert.True(t, ok)
		assert.Equal(t, level(3), got)

		m, ok := decode[tagMap](plist.Dict{"x": plist.Bool(true)})
		assert.True(t, ok)
		assert.Equal(t, tagMap{"x": true}, m)
	})

	t.Run("no nested lists", func(t *testing.T) {
		_, ok := decode[[]int](plist.Array{plist.Array{plist.Int(1)}})
		assert.False(t, ok)
	})

	t.Run("list of data", func(t *testing.T) {
		got, ok := decode[[][]byte](plist.Array{plist.Data("a"), plist.Data("b")})
		assert.True(t, ok)
		assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, got)
	})

	t.Run("float32 from int", func(t *testing.T) {
		got, ok := decode[float32](plist.Int(2))
		assert.True(t, ok)
		assert.Equal(t, float32(2), got)

		_, ok = decode[float32](plist.Int(1<<24 + 1))
		assert.False(t, ok, "2^24+1 has no exact float32")

		got64, ok := decode[float64](plist.Int(1<<24 + 1))
		assert.True(t, ok)
		assert.Equal(t, float64(1<<24+1), got64)
	})

	t.Run("raw-representable goes through FromRaw", func(t *testing.T) {
		got, ok := decode[lang](plist.String("fi"))
		assert.True(t, ok)
		assert.Equal(t, finnish, got)

		_, ok = decode[lang](plist.String("de"))
		assert.False(t, ok)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, ok := decode[string](plist.Int(1))
		assert.False(t, ok)
		_, ok = decode[bool](plist.Int(1))
		assert.False(t, ok)
		_, ok = decode[map[string]int](plist.Array{})
		assert.False(t, ok)
	})
}

func TestEncode(t *testing.T) {
	raw, err := encode(swedish)
	assert.NoError(t, err)
	assert.Equal(t, plist.String("sv"), raw)

	v, err := encode(map[string]int64{"a": 1})
	assert.NoError(t, err)
	assert.Equal(t, plist.Dict{"a": plist.Int(1)}, v)

	v, err = encode(uint32(7))
	assert.NoError(t, err)
	assert.Equal(t, plist.Int(7), v)

	_, err = encode([]float64{1, 2, 3 / zero()})
	assert.Error(t, err)
}

func zero() float64 { return 0 }
