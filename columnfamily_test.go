package pebbledict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnFamilies(t *testing.T) {
	d := newTestDict(t)

	users, err := d.CreateColumnFamily("users")
	require.NoError(t, err)
	defer users.Close()
	require.Equal(t, "users", users.ColumnFamilyName())

	// Same key, separate partitions.
	require.NoError(t, d.Put("id", "root"))
	require.NoError(t, users.Put("id", "alice"))

	v, err := d.Get("id")
	require.NoError(t, err)
	require.Equal(t, "root", v)
	v, err = users.Get("id")
	require.NoError(t, err)
	require.Equal(t, "alice", v)

	_, err = d.CreateColumnFamily("users")
	require.ErrorIs(t, err, ErrColumnFamilyExists)
	_, err = d.CreateColumnFamily("")
	require.Error(t, err)

	again, err := d.ColumnFamily("users")
	require.NoError(t, err)
	v, err = again.Get("id")
	require.NoError(t, err)
	require.Equal(t, "alice", v)
	require.NoError(t, again.Close())

	// Closing one bound handle does not disturb the others.
	v, err = users.Get("id")
	require.NoError(t, err)
	require.Equal(t, "alice", v)

	_, err = d.ColumnFamily("ghosts")
	require.ErrorIs(t, err, ErrNoColumnFamily)
	_, err = d.ColumnFamilyHandle("ghosts")
	require.ErrorIs(t, err, ErrNoColumnFamily)
}

func TestColumnFamilyIterationIsolated(t *testing.T) {
	d := newTestDict(t)

	users, err := d.CreateColumnFamily("users")
	require.NoError(t, err)
	defer users.Close()

	require.NoError(t, d.Put("a", int64(1)))
	require.NoError(t, d.Put("b", int64(2)))
	require.NoError(t, users.Put("c", int64(3)))

	collect := func(h *Dict) []any {
		keys, err := h.Keys(false, nil)
		require.NoError(t, err)
		defer keys.Close()

		var out []any
		for keys.Next() {
			out = append(out, keys.Key())
		}
		require.NoError(t, keys.Err())
		return out
	}

	require.Equal(t, []any{"a", "b"}, collect(d))
	require.Equal(t, []any{"c"}, collect(users))
}

func TestListColumnFamilies(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir, nil)
	require.NoError(t, err)
	for _, name := range []string{"users", "events"} {
		cf, err := d.CreateColumnFamily(name)
		require.NoError(t, err)
		require.NoError(t, cf.Close())
	}
	require.NoError(t, d.Close())

	// Listing reads the sidecar; no engine is opened.
	names, err := ListColumnFamilies(dir, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"default", "events", "users"}, names)

	// The registry survives reopening.
	d, err = Open(dir, nil)
	require.NoError(t, err)
	defer d.Close()

	users, err := d.ColumnFamily("users")
	require.NoError(t, err)
	require.NoError(t, users.Close())
}

func TestDropColumnFamily(t *testing.T) {
	d := newTestDict(t)

	tmp, err := d.CreateColumnFamily("tmp")
	require.NoError(t, err)
	require.NoError(t, tmp.Put("k", "v"))
	require.NoError(t, d.Put("k", "kept"))

	require.NoError(t, d.DropColumnFamily("tmp"))

	// The dropped family's data is gone; other families are untouched.
	_, err = tmp.Get("k")
	require.ErrorIs(t, err, ErrNotFound)
	v, err := d.Get("k")
	require.NoError(t, err)
	require.Equal(t, "kept", v)
	require.NoError(t, tmp.Close())

	_, err = d.ColumnFamily("tmp")
	require.ErrorIs(t, err, ErrNoColumnFamily)
	require.ErrorIs(t, d.DropColumnFamily("tmp"), ErrNoColumnFamily)

	// Recreating the name yields a fresh, empty family.
	fresh, err := d.CreateColumnFamily("tmp")
	require.NoError(t, err)
	defer fresh.Close()
	_, err = fresh.Get("k")
	require.ErrorIs(t, err, ErrNotFound)

	require.Error(t, d.DropColumnFamily(DefaultColumnFamilyName))
}

func TestWriteBatchColumnFamilies(t *testing.T) {
	d := newTestDict(t)

	users, err := d.CreateColumnFamily("users")
	require.NoError(t, err)
	defer users.Close()

	cf, err := d.ColumnFamilyHandle("users")
	require.NoError(t, err)
	require.Equal(t, "users", cf.Name())

	wb := d.NewWriteBatch()
	require.NoError(t, wb.Put("shared", "default"))
	require.NoError(t, wb.PutCF(cf, "shared", "users"))
	require.NoError(t, d.Write(wb))

	v, err := d.Get("shared")
	require.NoError(t, err)
	require.Equal(t, "default", v)
	v, err = users.Get("shared")
	require.NoError(t, err)
	require.Equal(t, "users", v)

	// Retarget untargeted operations mid-batch.
	wb = d.NewWriteBatch()
	require.NoError(t, wb.SetDefaultColumnFamily(cf))
	require.NoError(t, wb.Put("only-users", true))
	require.NoError(t, d.Write(wb))

	_, err = d.Get("only-users")
	require.ErrorIs(t, err, ErrNotFound)
	ok, err := users.Has("only-users")
	require.NoError(t, err)
	require.True(t, ok)

	// Targeted deletes leave neighbouring families alone.
	wb = d.NewWriteBatch()
	require.NoError(t, wb.DeleteCF(cf, "shared"))
	require.NoError(t, wb.DeleteRangeCF(cf, "only-users", "only-usert"))
	require.NoError(t, d.Write(wb))

	_, err = users.Get("shared")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = users.Get("only-users")
	require.ErrorIs(t, err, ErrNotFound)
	v, err = d.Get("shared")
	require.NoError(t, err)
	require.Equal(t, "default", v)
}
