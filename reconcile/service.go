// Package reconcile aligns the bookkeeping timestamps of freshly imported
// entries after an import run.
package reconcile

import (
	"context"
	"fmt"
)

// Syncer forces updated_at = created_at for the given entry ids in one
// atomic batch and reports the number of rows it changed.
type Syncer interface {
	SyncUpdatedAtToCreatedAt(ctx context.Context, ids []int64) (int, error)
}

// SyncUpdatedAt makes every listed entry report created == updated. Only the
// given ids are touched; pre-existing rows and rows of other runs stay as
// they are.
func SyncUpdatedAt(ctx context.Context, store Syncer, ids []int64) (int, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return 0, nil
	}

	synced, err := store.SyncUpdatedAtToCreatedAt(ctx, unique)
	if err != nil {
		return 0, fmt.Errorf("sync updated_at of %d imported rows: %w", len(unique), err)
	}
	return synced, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
