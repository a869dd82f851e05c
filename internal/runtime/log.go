package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"ammEngine/internal/model"
)

// EventFilter selects records from the event log.
type EventFilter struct {
	FromSeq uint64
	// ToSeq of zero means no upper bound.
	ToSeq uint64
	Pools map[string]struct{}
	Limit int
}

// Events returns committed records in sequence order.
func (h *Host) Events(ctx context.Context, filter EventFilter) ([]model.EventRecord, error) {
	var out []model.EventRecord
	err := h.View(ctx, func(tx *Tx) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = eventPrefix
		it := tx.txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(eventKey(filter.FromSeq)); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if filter.ToSeq != 0 && eventSeq(item.Key()) > filter.ToSeq {
				break
			}
			var record model.EventRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("read event %d: %w", eventSeq(item.Key()), err)
			}
			if len(filter.Pools) > 0 {
				if _, ok := filter.Pools[record.Pool]; !ok {
					continue
				}
			}
			out = append(out, record)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// LatestSeq returns the highest committed sequence, or zero for an empty log.
func (h *Host) LatestSeq(ctx context.Context) (uint64, error) {
	var latest uint64
	err := h.View(ctx, func(tx *Tx) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = eventPrefix
		it := tx.txn.NewIterator(opts)
		defer it.Close()

		it.Seek(eventKey(^uint64(0)))
		if it.Valid() {
			latest = eventSeq(it.Item().Key())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return latest, nil
}
