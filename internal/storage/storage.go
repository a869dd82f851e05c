package storage

import (
	"context"

	"ammEngine/internal/model"
)

// Storage defines a sink for event records.
type Storage interface {
	PutEventBatch(ctx context.Context, records []model.EventRecord) error
}

// Multi writes every batch to each sink in order and stops at the first error.
type Multi []Storage

func (m Multi) PutEventBatch(ctx context.Context, records []model.EventRecord) error {
	for _, s := range m {
		if err := s.PutEventBatch(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
