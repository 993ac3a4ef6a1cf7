package chat

import (
	"time"

	"github.com/atelierhq/client-platform/internal/model"
)

// Merge folds an incremental batch into the current message list:
// every existing message whose id does not appear in the batch is kept
// in order, then the batch is appended. Repeated or overlapping batches
// therefore never duplicate or reorder history, and an optimistic entry
// survives until its confirmed record arrives in a batch.
func Merge(existing, batch []model.Message) []model.Message {
	if len(batch) == 0 {
		return existing
	}

	incoming := make(map[string]struct{}, len(batch))
	for _, m := range batch {
		incoming[m.ID] = struct{}{}
	}

	merged := make([]model.Message, 0, len(existing)+len(batch))
	for _, m := range existing {
		if _, ok := incoming[m.ID]; !ok {
			merged = append(merged, m)
		}
	}
	return append(merged, batch...)
}

// AdvanceCursor returns the later of cursor and the newest creation
// time in batch. The cursor is monotonic: it never rewinds.
func AdvanceCursor(cursor time.Time, batch []model.Message) time.Time {
	for _, m := range batch {
		if m.CreatedAt.After(cursor) {
			cursor = m.CreatedAt
		}
	}
	return cursor
}
