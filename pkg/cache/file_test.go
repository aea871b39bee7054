package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_SetThenGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileBackend(dir, time.Minute, 0)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("hello"), 0))
	val, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(val))
}

func TestFileBackend_MissOnAbsentKey(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileBackend(t.TempDir(), time.Minute, 0)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackend_ExpiryTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileBackend(t.TempDir(), time.Minute, 0)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("v"), 1))
	time.Sleep(1100 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackend_AtomicWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileBackend(dir, time.Minute, 0)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "no leftover temp files after Set")
	}
}

func TestFileBackend_CorruptEntryTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileBackend(dir, time.Minute, 0)
	require.NoError(t, err)

	path := c.pathFor("k1")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackend_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileBackend(dir, time.Minute, 0)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Delete(ctx, "a"))
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Stats().Size)
}

func TestFileBackend_KeyToFilenameIsStable(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileBackend(dir, time.Minute, 0)
	require.NoError(t, err)

	p1 := c.pathFor("same-key")
	p2 := c.pathFor("same-key")
	assert.Equal(t, p1, p2)
	assert.Equal(t, dir, filepath.Dir(p1))
}
