package fingerprintstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LookupMissingFingerprintReturnsNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, found := s.Lookup(context.Background(), "fp-missing")
	assert.False(t, found)
}

func TestStore_RecordCreatedThenLookupFindsIssueKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.RecordCreated("fp-1", "PROJ-100"))

	key, found := s.Lookup(context.Background(), "fp-1")
	require.True(t, found)
	assert.Equal(t, "PROJ-100", key)
}

func TestStore_RecordSeenDoesNotSetIssueKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.RecordSeen("fp-2"))

	key, found := s.Lookup(context.Background(), "fp-2")
	assert.True(t, found)
	assert.Empty(t, key)
}

func TestStore_RecordCreatedIncrementsOccurrencesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.RecordSeen("fp-3"))
	require.NoError(t, s.RecordCreated("fp-3", "PROJ-1"))

	raw, err := os.ReadFile(filepath.Join(dir, "fingerprints", "state.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"occurrences": 2`)
}

func TestStore_PersistsAcrossInstancesAtSamePath(t *testing.T) {
	dir := t.TempDir()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.RecordCreated("fp-4", "PROJ-4"))

	s2, err := New(dir)
	require.NoError(t, err)
	key, found := s2.Lookup(context.Background(), "fp-4")
	require.True(t, found)
	assert.Equal(t, "PROJ-4", key)
}

func TestStore_CorruptStoreTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	fpDir := filepath.Join(dir, "fingerprints")
	require.NoError(t, os.MkdirAll(fpDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fpDir, "state.json"), []byte("not json"), 0o644))

	s, err := New(dir)
	require.NoError(t, err)

	_, found := s.Lookup(context.Background(), "fp-5")
	assert.False(t, found)

	require.NoError(t, s.RecordCreated("fp-5", "PROJ-5"))
	key, found := s.Lookup(context.Background(), "fp-5")
	require.True(t, found)
	assert.Equal(t, "PROJ-5", key)
}
