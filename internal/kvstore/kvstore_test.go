package kvstore

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	_, ok, err := s.Get("enterate-events")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("enterate-events", `[{"id":"1"}]`))
	require.NoError(t, s.Set("enterate-users", `[]`))
	v, ok, err := s.Get("enterate-events")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, s.Set("enterate-events", `[]`))
	v, _, _ = s.Get("enterate-events")
	assert.Equal(t, `[]`, v)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"enterate-events", "enterate-users"}, keys)

	require.NoError(t, s.Delete("enterate-events"))
	require.NoError(t, s.Delete("enterate-events"))
	_, ok, _ = s.Get("enterate-events")
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "enterate-kv")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	exerciseStore(t, NewFile(dir))
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	dir, err := ioutil.TempDir("", "enterate-kv")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	s := NewFile(dir)
	err = s.Set("../escape", "x")
	assert.Error(t, err)
	_, _, err = s.Get("a/b")
	assert.Error(t, err)
}
