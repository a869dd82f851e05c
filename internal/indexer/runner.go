package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ammEngine/internal/model"
	"ammEngine/internal/storage"
)

// EventSource serves committed event records by sequence.
type EventSource interface {
	LatestSeq(ctx context.Context) (uint64, error)
	Events(ctx context.Context, from, to uint64, pools []string) ([]model.EventRecord, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromSeq           uint64
	ToSeq             uint64
	Pools             []string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	// Follow keeps polling for new records after catching up.
	Follow       bool
	PollInterval time.Duration
}

// Runner copies event records from a server into storage.
type Runner struct {
	cfg        RunConfig
	source     EventSource
	storage    storage.Storage
	logger     *zap.Logger
	lastSeq    uint64
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source EventSource, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		storage:    sink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("event source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromSeq
	if from == 0 {
		from = 1
	}
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastProcessedSeq >= from {
			from = cp.LastProcessedSeq + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedSeq), zap.Uint64("from", from))
		}
	}

	for {
		to, err := r.target(ctx)
		if err != nil {
			return err
		}
		if from <= to {
			if err := r.syncRange(ctx, from, to); err != nil {
				return err
			}
			from = to + 1
		} else {
			r.logger.Debug("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		}

		if !r.cfg.Follow || (r.cfg.ToSeq != 0 && from > r.cfg.ToSeq) {
			return nil
		}
		if err := sleep(ctx, r.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// target is the last sequence the current pass should reach.
func (r *Runner) target(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = r.source.LatestSeq(ctx)
		if err != nil {
			r.logger.Warn("latest seq failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get latest seq: %w", err)
	}
	if r.cfg.ToSeq != 0 && r.cfg.ToSeq < latest {
		return r.cfg.ToSeq, nil
	}
	return latest, nil
}

func (r *Runner) syncRange(ctx context.Context, from, to uint64) error {
	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, seqRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch events", zap.Uint64("from", seqRange.From), zap.Uint64("to", seqRange.To))
		records, err := r.fetchRange(ctx, seqRange)
		if err != nil {
			return fmt.Errorf("fetch events: %w", err)
		}
		if err := r.storage.PutEventBatch(ctx, records); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if r.checkpoint != nil {
			if err := r.checkpoint.Save(seqRange.To); err != nil {
				return err
			}
		}
		r.logger.Info("batch complete", zap.Int("events", len(records)), zap.Uint64("from", seqRange.From), zap.Uint64("to", seqRange.To))
	}
	return nil
}

// fetchRange pages through one range; the server may cap a response below
// the range size.
func (r *Runner) fetchRange(ctx context.Context, seqRange SeqRange) ([]model.EventRecord, error) {
	var out []model.EventRecord
	next := seqRange.From
	for next <= seqRange.To {
		var page []model.EventRecord
		err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			page, err = r.source.Events(ctx, next, seqRange.To, r.cfg.Pools)
			if err != nil {
				r.logger.Warn("fetch events failed", zap.Error(err), zap.Uint64("from", next), zap.Uint64("to", seqRange.To))
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, record := range page {
			if r.isDuplicate(record) {
				continue
			}
			out = append(out, record)
		}
		last := page[len(page)-1].Seq
		if last >= seqRange.To {
			break
		}
		next = last + 1
	}
	return out, nil
}

// isDuplicate drops records at or below the last stored sequence.
func (r *Runner) isDuplicate(record model.EventRecord) bool {
	if record.Seq <= r.lastSeq {
		return true
	}
	r.lastSeq = record.Seq
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
