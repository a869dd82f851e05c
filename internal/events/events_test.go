package events

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"ammEngine/internal/model"
)

func testKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return key.PublicKey()
}

func TestDecodeSwapExecuted(t *testing.T) {
	pool := model.Pool{Address: testKey(t), AssetA: testKey(t), AssetB: testKey(t), FeeRate: 30, ReserveA: 1100, ReserveB: 910}
	user := testKey(t)
	event := model.SwapExecutedEvent{User: user, AmountIn: 100, AmountOut: 90, Direction: model.AToB}

	record, err := NewRecord(7, pool, event, 1_700_000_000)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if record.EventName != model.EventSwapExecuted || record.Pool != pool.Address.String() {
		t.Fatalf("record header mismatch: %+v", record)
	}
	if record.PoolMeta.ReserveB != 910 {
		t.Fatalf("pool meta mismatch: %+v", record.PoolMeta)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode(record.Topic0) {
		t.Fatalf("decoder cannot decode own topic0 %s", record.Topic0)
	}
	typed, err := decoder.Decode(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	swap, ok := typed.Decoded.(model.SwapExecutedEvent)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", typed.Decoded)
	}
	if swap != event {
		t.Fatalf("decoded %+v, want %+v", swap, event)
	}
	if typed.Seq != 7 || typed.Timestamp != 1_700_000_000 {
		t.Fatalf("typed header mismatch: %+v", typed)
	}
}

func TestDecodePoolCreatedAndLiquidityAdded(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	pool := model.Pool{Address: testKey(t), AssetA: testKey(t), AssetB: testKey(t)}
	for _, event := range []model.Event{
		model.PoolCreatedEvent{Pool: pool.Address, AssetA: pool.AssetA, AssetB: pool.AssetB, FeeRate: 25},
		model.LiquidityAddedEvent{User: testKey(t), AmountA: 200, AmountB: 50},
	} {
		record, err := NewRecord(1, pool, event, 0)
		if err != nil {
			t.Fatalf("record %s: %v", event.EventName(), err)
		}
		typed, err := decoder.Decode(record)
		if err != nil {
			t.Fatalf("decode %s: %v", event.EventName(), err)
		}
		if typed.Decoded != event {
			t.Fatalf("decoded %+v, want %+v", typed.Decoded, event)
		}
	}
}

func TestDecodeRejectsUnknownTopic(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if decoder.CanDecode("") || decoder.CanDecode("0xdeadbeef") {
		t.Fatalf("unexpected topic support")
	}
	topic, err := Topic0(model.EventSwapExecuted)
	if err != nil {
		t.Fatalf("topic0: %v", err)
	}
	_, err = decoder.Decode(model.EventRecord{Topic0: topic, EventName: model.EventPoolCreated, Pool: testKey(t).String()})
	if err == nil {
		t.Fatalf("expected name/topic mismatch error")
	}
	if _, err := Topic0("Burn"); err == nil {
		t.Fatalf("expected unknown event error")
	}
}

func TestBusDeliversByNameAndAll(t *testing.T) {
	bus := NewBus(nil)
	var mu sync.Mutex
	var byName, all []uint64
	if err := bus.Subscribe(model.EventSwapExecuted, func(r model.EventRecord) {
		mu.Lock()
		byName = append(byName, r.Seq)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.SubscribeAsync(TopicAll, func(r model.EventRecord) {
		mu.Lock()
		all = append(all, r.Seq)
		mu.Unlock()
	}, true); err != nil {
		t.Fatalf("subscribe async: %v", err)
	}

	bus.Publish(model.EventRecord{Seq: 1, EventName: model.EventPoolCreated})
	bus.Publish(model.EventRecord{Seq: 2, EventName: model.EventSwapExecuted})
	bus.WaitAsync()

	mu.Lock()
	defer mu.Unlock()
	if len(byName) != 1 || byName[0] != 2 {
		t.Fatalf("by-name delivery: %v", byName)
	}
	if len(all) != 2 || all[0] != 1 || all[1] != 2 {
		t.Fatalf("all delivery: %v", all)
	}
}
