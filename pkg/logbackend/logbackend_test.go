package logbackend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFetcher_FiltersByServiceAndEnv(t *testing.T) {
	f := NewInMemoryFetcher([]Record{
		{Service: "payments", Env: "prod", Message: "a"},
		{Service: "payments", Env: "staging", Message: "b"},
		{Service: "checkout", Env: "prod", Message: "c"},
	})

	records, err := f.FetchLogs(context.Background(), Filters{Service: "payments", Env: "prod"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Message)
}

func TestInMemoryFetcher_RespectsLimit(t *testing.T) {
	f := NewInMemoryFetcher([]Record{{Message: "1"}, {Message: "2"}, {Message: "3"}})

	records, err := f.FetchLogs(context.Background(), Filters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestInMemoryFetcher_SeedAppendsRecords(t *testing.T) {
	f := NewInMemoryFetcher(nil)
	f.Seed(Record{Message: "new"})

	records, err := f.FetchLogs(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
