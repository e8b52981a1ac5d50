package property

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
	"github.com/roach88/prefs/internal/testutil"
)

func TestGroup_ResetAllAndRemoveAll(t *testing.T) {
	st := store.NewMemory()

	flag := New(key.Fixed("flag"), false, WithStore(st))
	withInit, err := New(key.Fixed("flag_init"), false, WithStore(st)).WithInitial(true)
	require.NoError(t, err)
	language, err := NewRaw[lang, string](key.Fixed("lang"), english, WithStore(st)).WithInitial(finnish)
	require.NoError(t, err)
	opt := NewOptional[string](key.Fixed("nick"), WithStore(st))

	g := Group{flag, withInit, language, opt}
	assert.Equal(t, []key.Key{key.Fixed("flag"), key.Fixed("flag_init"), key.Fixed("lang"), key.Fixed("nick")}, g.Keys())

	require.NoError(t, flag.Set(true))
	require.NoError(t, withInit.Set(false))
	require.NoError(t, language.Set(swedish))
	require.NoError(t, opt.Set("bob"))

	require.NoError(t, g.ResetAll())

	keys, err := st.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"flag_init", "lang"}, keys)

	v, ok, err := st.Get("lang")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plist.String("fi"), v)

	require.NoError(t, g.RemoveAll())
	keys, err = st.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	got, err := language.Get()
	require.NoError(t, err)
	assert.Equal(t, english, got)
}

func TestGroup_JoinsErrors(t *testing.T) {
	st := testutil.NewRecorder()
	boom := errors.New("offline")

	a := New(key.Fixed("a"), 0, WithStore(st))
	b := NewOptional[int](key.Fixed("b"), WithStore(st))
	deferred := New(key.Deferred(), 0, WithStore(st))

	st.Fail = boom
	g := Group{a, b, deferred}

	err := g.RemoveAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "property a")
	assert.Contains(t, err.Error(), "property b")

	err = g.ResetAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	st.Fail = nil
	assert.NoError(t, g.ResetAll())
}

func TestManipulator_AllVariants(t *testing.T) {
	st := store.NewMemory()
	ms := []Manipulator{
		New(key.Fixed("p"), 1, WithStore(st)),
		NewOptional[int](key.Fixed("o"), WithStore(st)),
		NewRaw[lang, string](key.Fixed("r"), english, WithStore(st)),
		NewOptionalRaw[lang, string](key.Fixed("or"), WithStore(st)),
	}
	for _, m := range ms {
		require.NoError(t, st.Set(m.Key().String(), plist.Int(1)))
		require.NoError(t, m.RemoveFromStore())
		_, ok, err := st.Get(m.Key().String())
		require.NoError(t, err)
		assert.False(t, ok, m.Key().String())
	}
}
