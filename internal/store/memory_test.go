package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/core"
)

func TestInMemoryCredentialStore(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := NewInMemoryCredentialStore().WithClock(func() time.Time { return now })

	records := []core.CredentialRecord{
		{CorrelationID: "old", IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{CorrelationID: "edge", IssuedAt: now.Add(-time.Hour), ExpiresAt: now},
		{CorrelationID: "a", IssuedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)},
		{CorrelationID: "b", IssuedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, s.Save(ctx, r))
	}

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].CorrelationID, "newest first")
	assert.Equal(t, "a", active[1].CorrelationID)

	deleted, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	active, err = s.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
