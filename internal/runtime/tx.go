package runtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/gagliardetto/solana-go"

	"ammEngine/internal/amm"
	"ammEngine/internal/codec"
	"ammEngine/internal/events"
	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

const poolRecord = "Pool"

type pendingEvent struct {
	pool  model.Pool
	event model.Event
}

// Tx is one host transaction. It satisfies amm.Txn and ledger.KV.
type Tx struct {
	txn     *badger.Txn
	ledger  *ledger.Ledger
	pending []pendingEvent
}

var _ amm.Txn = (*Tx)(nil)

// Get returns the value for key, or nil when the key is absent.
func (t *Tx) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *Tx) Set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *Tx) Pool(address solana.PublicKey) (model.Pool, bool, error) {
	data, err := t.Get(poolKey(address))
	if err != nil {
		return model.Pool{}, false, fmt.Errorf("load pool %s: %w", address, err)
	}
	if data == nil {
		return model.Pool{}, false, nil
	}
	var pool model.Pool
	if err := codec.Decode(poolRecord, data, &pool); err != nil {
		return model.Pool{}, false, err
	}
	pool.Address = address
	return pool, true, nil
}

func (t *Tx) PutPool(pool model.Pool) error {
	data, err := codec.Encode(poolRecord, &pool)
	if err != nil {
		return err
	}
	if err := t.Set(poolKey(pool.Address), data); err != nil {
		return fmt.Errorf("store pool %s: %w", pool.Address, err)
	}
	return nil
}

// Ledger returns the custody view the engine transfers through.
func (t *Tx) Ledger() amm.Ledger {
	return t.ledger
}

// Custody returns the full ledger, including registration and minting.
func (t *Tx) Custody() *ledger.Ledger {
	return t.ledger
}

// Emit queues an event for the commit. Nothing is stored if the operation fails.
func (t *Tx) Emit(pool model.Pool, event model.Event) {
	t.pending = append(t.pending, pendingEvent{pool: pool, event: event})
}

// Pools lists every pool record.
func (t *Tx) Pools() ([]model.Pool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = poolPrefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var pools []model.Pool
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		data, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var pool model.Pool
		if err := codec.Decode(poolRecord, data, &pool); err != nil {
			return nil, err
		}
		copy(pool.Address[:], item.Key()[len(poolPrefix):])
		pools = append(pools, pool)
	}
	return pools, nil
}

func (t *Tx) writeEvents(firstSeq, timestamp uint64) ([]model.EventRecord, error) {
	records := make([]model.EventRecord, 0, len(t.pending))
	for i, p := range t.pending {
		record, err := events.NewRecord(firstSeq+uint64(i), p.pool, p.event, timestamp)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal event %d: %w", record.Seq, err)
		}
		if err := t.Set(eventKey(record.Seq), data); err != nil {
			return nil, fmt.Errorf("store event %d: %w", record.Seq, err)
		}
		records = append(records, record)
	}
	return records, nil
}
