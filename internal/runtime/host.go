// Package runtime hosts pool operations. Each operation runs inside one badger
// transaction, serialized per pool, and its events are appended to the event
// log in the same commit.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

// Publisher receives records after their transaction committed.
type Publisher interface {
	Publish(record model.EventRecord)
}

// Config configures the host.
type Config struct {
	// Path is the badger directory. Empty runs in memory.
	Path               string
	LedgerProgramID    solana.PublicKey
	MaxConflictRetries int
	Hooks              []ledger.Hook
}

// Host owns the state store and executes operations against it.
type Host struct {
	cfg    Config
	db     *badger.DB
	locks  *keyedMutex
	bus    Publisher
	logger *zap.Logger
	now    func() time.Time

	commitMu sync.Mutex
	nextSeq  uint64

	closeOnce sync.Once
	closeErr  error
}

// Open opens the store and recovers the event sequence.
func Open(cfg Config, bus Publisher, logger *zap.Logger) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(cfg.Path).WithLogger(newBadgerLogger(logger))
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	h := &Host{
		cfg:    cfg,
		db:     db,
		locks:  newKeyedMutex(),
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
	latest, err := h.LatestSeq(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	h.nextSeq = latest + 1
	logger.Info("state store opened",
		zap.String("path", cfg.Path),
		zap.Bool("in_memory", cfg.Path == ""),
		zap.Uint64("next_seq", h.nextSeq),
	)
	return h, nil
}

// Close closes the store.
func (h *Host) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		h.closeErr = h.db.Close()
	})
	return h.closeErr
}

// Execute runs fn in a read-write transaction while holding the lock for
// lockKey. Operations on the same key are serialized; a commit that loses a
// badger conflict is retried from scratch. Records emitted by fn are stored
// in the same commit and published afterwards.
func (h *Host) Execute(ctx context.Context, lockKey solana.PublicKey, fn func(tx *Tx) error) error {
	unlock := h.locks.Lock(lockKey.String())
	defer unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := h.executeOnce(fn)
		if err == nil {
			h.publish(records)
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= h.cfg.MaxConflictRetries {
			return err
		}
		h.logger.Debug("transaction conflict, retrying",
			zap.String("lock", lockKey.String()),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (h *Host) executeOnce(fn func(tx *Tx) error) ([]model.EventRecord, error) {
	txn := h.db.NewTransaction(true)
	defer txn.Discard()

	tx := h.newTx(txn)
	if err := fn(tx); err != nil {
		return nil, err
	}

	h.commitMu.Lock()
	defer h.commitMu.Unlock()
	records, err := tx.writeEvents(h.nextSeq, uint64(h.now().Unix()))
	if err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	h.nextSeq += uint64(len(records))
	return records, nil
}

// View runs fn in a read-only transaction.
func (h *Host) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.db.View(func(txn *badger.Txn) error {
		return fn(h.newTx(txn))
	})
}

func (h *Host) newTx(txn *badger.Txn) *Tx {
	tx := &Tx{txn: txn}
	tx.ledger = ledger.New(tx, h.cfg.LedgerProgramID, h.logger, h.cfg.Hooks...)
	return tx
}

func (h *Host) publish(records []model.EventRecord) {
	if h.bus == nil {
		return
	}
	for _, r := range records {
		h.bus.Publish(r)
	}
}
