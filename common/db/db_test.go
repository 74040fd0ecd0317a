package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDBGetSetDelete(t *testing.T) {
	mem := NewGoMemDB()

	_, err := mem.Get([]byte("missing"))
	assert.Equal(t, ErrNotFoundInDb, err)

	require.NoError(t, mem.Set([]byte("k"), []byte("v")))
	v, err := mem.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, mem.Delete([]byte("k")))
	_, err = mem.Get([]byte("k"))
	assert.Equal(t, ErrNotFoundInDb, err)
}

func TestMemDBBatch(t *testing.T) {
	mem := NewGoMemDB()
	require.NoError(t, mem.Set([]byte("gone"), []byte("x")))

	batch := mem.NewBatch(true)
	batch.Set([]byte("a"), []byte("1"))
	batch.Set([]byte("b"), []byte("2"))
	batch.Delete([]byte("gone"))
	require.NoError(t, batch.Write())

	v, err := mem.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	_, err = mem.Get([]byte("gone"))
	assert.Equal(t, ErrNotFoundInDb, err)
}

func fillList(t *testing.T, d DB) {
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Set([]byte(fmt.Sprintf("prefix-%03d", i)), []byte(fmt.Sprintf("v%d", i))))
	}
	require.NoError(t, d.Set([]byte("other-000"), []byte("noise")))
}

func TestMemDBListAscending(t *testing.T) {
	mem := NewGoMemDB()
	fillList(t, mem)

	values, err := mem.List([]byte("prefix-"), nil, 0, 1)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, []byte("v0"), values[0])
	assert.Equal(t, []byte("v4"), values[4])
}

func TestMemDBListDescendingPaged(t *testing.T) {
	mem := NewGoMemDB()
	fillList(t, mem)

	values, err := mem.List([]byte("prefix-"), nil, 2, 0)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []byte("v4"), values[0])
	assert.Equal(t, []byte("v3"), values[1])

	// resume after the last seen key
	values, err = mem.List([]byte("prefix-"), []byte("prefix-003"), 2, 0)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []byte("v2"), values[0])
	assert.Equal(t, []byte("v1"), values[1])
}

func TestMemDBListEmpty(t *testing.T) {
	mem := NewGoMemDB()
	_, err := mem.List([]byte("prefix-"), nil, 0, 1)
	assert.Equal(t, ErrNotFoundInDb, err)
}

func TestLevelDBBackend(t *testing.T) {
	dir := t.TempDir()
	ldb, err := NewGoLevelDB("test", dir, 16)
	require.NoError(t, err)
	defer ldb.Close()

	fillList(t, ldb)
	values, err := ldb.List([]byte("prefix-"), nil, 0, 1)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, []byte("v0"), values[0])

	values, err = ldb.List([]byte("prefix-"), []byte("prefix-001"), 2, 1)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []byte("v2"), values[0])
	assert.Equal(t, []byte("v3"), values[1])

	values, err = ldb.List([]byte("prefix-"), nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte("v4"), values[0])
}

func TestBadgerBackend(t *testing.T) {
	dir := t.TempDir()
	bdb, err := NewGoBadgerDB("test", dir, 16)
	require.NoError(t, err)
	defer bdb.Close()

	require.NoError(t, bdb.Set([]byte("k"), []byte("v")))
	v, err := bdb.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	fillList(t, bdb)
	values, err := bdb.List([]byte("prefix-"), nil, 0, 1)
	require.NoError(t, err)
	require.Len(t, values, 5)
}

func TestNewDBRegistry(t *testing.T) {
	d := NewDB("reg", "memdb", "", 0)
	require.NoError(t, d.Set([]byte("k"), []byte("v")))
	v, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	assert.Panics(t, func() { NewDB("reg", "nosuch", "", 0) })
}
