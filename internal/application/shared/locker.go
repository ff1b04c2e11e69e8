package shared

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// BatchLocker serializes stock mutations per batch. Lock blocks until every
// batch is held or ctx is done; the returned func releases them all.
type BatchLocker interface {
	Lock(ctx context.Context, batchIDs ...uuid.UUID) (unlock func(), err error)
}

// SortedUnique returns ids deduplicated in a stable total order. Acquiring
// locks in this order keeps concurrent multi-batch operations deadlock-free.
func SortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
