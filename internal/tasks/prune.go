package tasks

import (
	"context"
	"fmt"

	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/logging"
)

const PruneCredentialsTask = "prune-credentials"

// PruneCredentials removes records of expired credentials from store.
func PruneCredentials(store core.CredentialStore) TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		deleted, err := store.DeleteExpired(ctx)
		if err != nil {
			return fmt.Errorf("deleting expired credential records: %w", err)
		}
		logger.Info("pruned %d expired credential records", deleted)
		return nil
	}
}
