package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prefs/internal/plist"
)

func TestOpenFile_MissingIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	f, err := OpenFile(path)
	require.NoError(t, err)

	keys, err := f.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is created lazily")

	require.NoError(t, f.Set("k", plist.Int(1)))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenFile_EmptyPath(t *testing.T) {
	_, err := OpenFile("")
	assert.Error(t, err)
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	when := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)

	f, err := OpenFile(path)
	require.NoError(t, err)
	values := map[string]plist.Value{
		"lang":    plist.String("fi"),
		"count":   plist.Int(7),
		"ratio":   plist.Float(3),
		"on":      plist.Bool(true),
		"cleared": plist.Null{},
		"at":      plist.Date(when),
		"blob":    plist.Data("hello"),
		"list":    plist.Array{plist.String("true"), plist.Int(1)},
		"nested":  plist.Dict{"inner": plist.Dict{"x": plist.Float(0.25)}},
	}
	for k, v := range values {
		require.NoError(t, f.Set(k, v))
	}
	require.NoError(t, f.Remove("count"))

	g, err := OpenFile(path)
	require.NoError(t, err)

	_, ok, err := g.Get("count")
	require.NoError(t, err)
	assert.False(t, ok)

	for k, want := range values {
		if k == "count" {
			continue
		}
		got, ok, err := g.Get(k)
		require.NoError(t, err, k)
		require.True(t, ok, k)
		assert.Equal(t, want.Kind(), got.Kind(), k)
		assert.True(t, plist.Equal(want, got), "%s: want %s got %s", k, plist.Format(want), plist.Format(got))
	}
}

func TestDecodeYAML_HandWritten(t *testing.T) {
	doc := []byte(`
language: sv
enabled: yes_it_is
flag: true
limit: 10
ratio: 1.5
anchor: &a [1, 2]
copy: *a
`)
	entries, err := DecodeYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, plist.String("sv"), entries["language"])
	assert.Equal(t, plist.String("yes_it_is"), entries["enabled"])
	assert.Equal(t, plist.Bool(true), entries["flag"])
	assert.Equal(t, plist.Int(10), entries["limit"])
	assert.Equal(t, plist.Float(1.5), entries["ratio"])
	assert.Equal(t, plist.Array{plist.Int(1), plist.Int(2)}, entries["copy"])
}

func TestDecodeYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"not a mapping":     "- a\n- b\n",
		"null in container": "list: [1, null]\n",
		"bad binary":        "b: !!binary '%%%'\n",
		"syntax":            "a: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeYAML_Empty(t *testing.T) {
	entries, err := DecodeYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEncodeYAML_SortedAndTagged(t *testing.T) {
	out, err := EncodeYAML(map[string]plist.Value{
		"b": plist.Float(2),
		"a": plist.String("123"),
	})
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, strings.Index(s, "a:"), strings.Index(s, "b:"))
	assert.Contains(t, s, "2.0")

	back, err := DecodeYAML(out)
	require.NoError(t, err)
	assert.Equal(t, plist.String("123"), back["a"])
	assert.Equal(t, plist.Float(2), back["b"])
}
