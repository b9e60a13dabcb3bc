// Package stream distributes engine events to observers. The engine publishes
// typed events; zero or more listeners (UI, exporters, test harnesses)
// subscribe without the engine depending on them.
package stream

import (
	"sync"
	"time"

	"mmsim/internal/models"
	"mmsim/internal/quote"
)

// EventType identifies the kind of an engine event.
type EventType string

const (
	EventTick     EventType = "tick"
	EventTrade    EventType = "trade"
	EventCollapse EventType = "collapse"
)

// Event is one engine notification. Payload fields are filled per type; all
// payloads are value copies, never live engine state.
type Event struct {
	Type      EventType
	Timestamp time.Time

	Point    *models.DataPoint // EventTick
	Quote    *quote.Quote      // EventTick
	Trade    *models.Trade     // EventTrade
	Collapse *models.Collapse  // EventCollapse
}

// Consumer receives events synchronously on the publisher's goroutine.
type Consumer interface {
	OnEvent(Event)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc struct {
	fn func(Event)
}

// NewConsumerFunc creates a new ConsumerFunc.
func NewConsumerFunc(fn func(Event)) *ConsumerFunc {
	return &ConsumerFunc{fn: fn}
}

// OnEvent implements Consumer.
func (c *ConsumerFunc) OnEvent(e Event) {
	if c.fn != nil {
		c.fn(e)
	}
}

// Subscriber is a channel subscription with drop accounting.
type Subscriber struct {
	Channel      chan Event
	DroppedCount int
	CreatedAt    time.Time
}

// Hub fans engine events out to channel subscribers and callback consumers.
// Sends to subscribers are non-blocking so a slow observer can never stall
// the tick loop.
type Hub struct {
	mu          sync.RWMutex
	subscribers []*Subscriber
	consumers   []Consumer

	bufferSize int

	published uint64
	dropped   uint64
}

// DefaultSubscriberBuffer is the channel buffer handed to each subscriber.
const DefaultSubscriberBuffer = 100

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{bufferSize: DefaultSubscriberBuffer}
}

// Subscribe returns a channel receiving all subsequent events.
func (h *Hub) Subscribe() <-chan Event {
	sub := &Subscriber{
		Channel:   make(chan Event, h.bufferSize),
		CreatedAt: time.Now(),
	}
	h.mu.Lock()
	h.subscribers = append(h.subscribers, sub)
	h.mu.Unlock()
	return sub.Channel
}

// Unsubscribe removes and closes a subscription channel.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscribers {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			break
		}
	}
}

// RegisterConsumer adds a synchronous event consumer.
func (h *Hub) RegisterConsumer(c Consumer) {
	h.mu.Lock()
	h.consumers = append(h.consumers, c)
	h.mu.Unlock()
}

// UnregisterConsumer removes a consumer.
func (h *Hub) UnregisterConsumer(c Consumer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, existing := range h.consumers {
		if existing == c {
			h.consumers = append(h.consumers[:i], h.consumers[i+1:]...)
			break
		}
	}
}

// Publish delivers an event to every subscriber and consumer. Subscriber
// sends are non-blocking; events to a full channel are dropped and counted.
// Sends happen under the lock, so Unsubscribe and Close can never close a
// channel mid-publish. Consumers run after the lock is released and may
// call back into the hub.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	h.published++
	for _, sub := range h.subscribers {
		select {
		case sub.Channel <- e:
		default:
			sub.DroppedCount++
			h.dropped++
		}
	}
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.mu.Unlock()

	for _, c := range consumers {
		c.OnEvent(e)
	}
}

// Close closes all subscriber channels and clears the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		close(sub.Channel)
	}
	h.subscribers = nil
	h.consumers = nil
}

// Metrics reports publish/drop counts and the subscriber count.
func (h *Hub) Metrics() (published, dropped uint64, subscribers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.published, h.dropped, len(h.subscribers)
}
