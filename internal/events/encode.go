package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"ammEngine/internal/model"
)

func errUnknownEvent(name string) error {
	return fmt.Errorf("unsupported event name: %s", name)
}

// Encode packs an event into its topic0 and hex data.
func Encode(event model.Event) (string, string, error) {
	parsed, err := PoolEventsABI()
	if err != nil {
		return "", "", err
	}
	name := event.EventName()
	ev, ok := parsed.Events[name]
	if !ok {
		return "", "", errUnknownEvent(name)
	}

	var args []interface{}
	switch e := event.(type) {
	case model.PoolCreatedEvent:
		args = []interface{}{[32]byte(e.Pool), [32]byte(e.AssetA), [32]byte(e.AssetB), e.FeeRate}
	case model.LiquidityAddedEvent:
		args = []interface{}{[32]byte(e.User), e.AmountA, e.AmountB}
	case model.SwapExecutedEvent:
		args = []interface{}{[32]byte(e.User), e.AmountIn, e.AmountOut, bool(e.Direction)}
	default:
		return "", "", errUnknownEvent(name)
	}

	data, err := ev.Inputs.Pack(args...)
	if err != nil {
		return "", "", fmt.Errorf("pack %s: %w", name, err)
	}
	return ev.ID.Hex(), hexutil.Encode(data), nil
}

// NewRecord builds the persisted record for an event committed against pool.
func NewRecord(seq uint64, pool model.Pool, event model.Event, timestamp uint64) (model.EventRecord, error) {
	topic0, data, err := Encode(event)
	if err != nil {
		return model.EventRecord{}, err
	}
	return model.EventRecord{
		Seq:       seq,
		Pool:      pool.Address.String(),
		EventName: event.EventName(),
		Topic0:    topic0,
		Timestamp: timestamp,
		Data:      data,
		PoolMeta:  pool.Meta(),
	}, nil
}
