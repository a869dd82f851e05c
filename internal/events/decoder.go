package events

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"

	"ammEngine/internal/model"
)

// Decoder turns event records back into typed payloads.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	parsed, err := PoolEventsABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(parsed.Events))
	for name, ev := range parsed.Events {
		topicToName[strings.ToLower(ev.ID.Hex())] = name
	}
	return &Decoder{poolABI: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts an EventRecord into a TypedEvent.
func (d *Decoder) Decode(record model.EventRecord) (*model.TypedEvent, error) {
	name, ok := d.topicToName[strings.ToLower(record.Topic0)]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", record.Topic0)
	}
	if record.EventName != "" && record.EventName != name {
		return nil, fmt.Errorf("event name %s does not match topic0 %s", record.EventName, name)
	}
	if _, err := solana.PublicKeyFromBase58(record.Pool); err != nil {
		return nil, fmt.Errorf("invalid pool address: %s", record.Pool)
	}

	data, err := hexutil.Decode(record.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	values, err := d.poolABI.Events[name].Inputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}

	var decoded model.Event
	switch name {
	case model.EventPoolCreated:
		decoded, err = decodePoolCreated(values)
	case model.EventLiquidityAdded:
		decoded, err = decodeLiquidityAdded(values)
	case model.EventSwapExecuted:
		decoded, err = decodeSwapExecuted(values)
	default:
		return nil, errUnknownEvent(name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		Seq:       record.Seq,
		Pool:      record.Pool,
		EventName: name,
		Timestamp: record.Timestamp,
		Decoded:   decoded,
		PoolMeta:  record.PoolMeta,
	}, nil
}

func decodePoolCreated(values []interface{}) (model.Event, error) {
	if len(values) != 4 {
		return nil, fmt.Errorf("expected 4 values, got %d", len(values))
	}
	pool, err := keyValue(values[0])
	if err != nil {
		return nil, err
	}
	assetA, err := keyValue(values[1])
	if err != nil {
		return nil, err
	}
	assetB, err := keyValue(values[2])
	if err != nil {
		return nil, err
	}
	feeRate, err := uint64Value(values[3])
	if err != nil {
		return nil, err
	}
	return model.PoolCreatedEvent{Pool: pool, AssetA: assetA, AssetB: assetB, FeeRate: feeRate}, nil
}

func decodeLiquidityAdded(values []interface{}) (model.Event, error) {
	if len(values) != 3 {
		return nil, fmt.Errorf("expected 3 values, got %d", len(values))
	}
	user, err := keyValue(values[0])
	if err != nil {
		return nil, err
	}
	amountA, err := uint64Value(values[1])
	if err != nil {
		return nil, err
	}
	amountB, err := uint64Value(values[2])
	if err != nil {
		return nil, err
	}
	return model.LiquidityAddedEvent{User: user, AmountA: amountA, AmountB: amountB}, nil
}

func decodeSwapExecuted(values []interface{}) (model.Event, error) {
	if len(values) != 4 {
		return nil, fmt.Errorf("expected 4 values, got %d", len(values))
	}
	user, err := keyValue(values[0])
	if err != nil {
		return nil, err
	}
	amountIn, err := uint64Value(values[1])
	if err != nil {
		return nil, err
	}
	amountOut, err := uint64Value(values[2])
	if err != nil {
		return nil, err
	}
	aToB, ok := values[3].(bool)
	if !ok {
		return nil, fmt.Errorf("unexpected direction type %T", values[3])
	}
	return model.SwapExecutedEvent{
		User:      user,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Direction: model.Direction(aToB),
	}, nil
}

func keyValue(v interface{}) (solana.PublicKey, error) {
	b, ok := v.([32]byte)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("unexpected key type %T", v)
	}
	return solana.PublicKey(b), nil
}

func uint64Value(v interface{}) (uint64, error) {
	n, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("unexpected amount type %T", v)
	}
	return n, nil
}
