package events

import (
	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"ammEngine/internal/model"
)

// TopicAll receives every committed record regardless of event name.
const TopicAll = "pool.events"

// Handler consumes a committed record.
type Handler func(record model.EventRecord)

// Bus fans committed event records out to in-process subscribers. Delivery is
// best effort and never affects the operation that produced the record.
type Bus struct {
	bus    evbus.Bus
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{bus: evbus.New(), logger: logger}
}

// Subscribe runs h synchronously on every record published to topic.
func (b *Bus) Subscribe(topic string, h Handler) error {
	return b.bus.Subscribe(topic, h)
}

// SubscribeAsync runs h on its own goroutine. Transactional handlers see
// records one at a time in publish order.
func (b *Bus) SubscribeAsync(topic string, h Handler, transactional bool) error {
	return b.bus.SubscribeAsync(topic, h, transactional)
}

// Publish delivers a record on its event-name topic and on TopicAll.
func (b *Bus) Publish(record model.EventRecord) {
	b.bus.Publish(record.EventName, record)
	b.bus.Publish(TopicAll, record)
}

// WaitAsync blocks until async handlers have drained.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

// LogHandler logs each record at debug level.
func LogHandler(logger *zap.Logger) Handler {
	return func(record model.EventRecord) {
		logger.Debug("event",
			zap.Uint64("seq", record.Seq),
			zap.String("pool", record.Pool),
			zap.String("event", record.EventName),
			zap.Uint64("reserve_a", record.PoolMeta.ReserveA),
			zap.Uint64("reserve_b", record.PoolMeta.ReserveB),
		)
	}
}
