// Package runtime hosts the process-wide broadcast hub and the worker
// plumbing that keeps it running. It carries no chat business rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"chat-relay/domain"
)

// Hub is the single process-wide publish/subscribe channel of chat
// events. Many inbound connection directions publish into it; many
// outbound directions each hold a Subscription.
//
// Overflow policy is reject-new: Publish never blocks, a full publish
// queue drops the event with a warning. Fan-out to a
// subscriber whose buffer is full drops the event for that subscriber
// only; other subscribers and the publisher are unaffected.
//
// All fan-out goes through the single Run loop, so every subscriber
// observes messages in publish order.
//
// Hub is safe for concurrent use without external locking.
type Hub struct {
	log     *slog.Logger
	publish chan domain.ChatMessage

	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	subBufSize int
}

// Subscription is one connection's receive handle on the hub. It must
// be closed when the outbound direction stops, otherwise the hub keeps
// fanning out to a buffer nobody drains.
type Subscription struct {
	hub  *Hub
	ch   chan domain.ChatMessage
	once sync.Once
}

// C delivers hub events in publish order until the subscription or the
// hub shuts down.
func (s *Subscription) C() <-chan domain.ChatMessage {
	return s.ch
}

// Close detaches the subscription from the hub. Safe to call more
// than once. The channel is not closed here; a concurrent fan-out may
// still be holding it.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

func NewHub(log *slog.Logger, publishBufferSize, subscriberBufferSize int) *Hub {
	return &Hub{
		log:        log,
		publish:    make(chan domain.ChatMessage, publishBufferSize),
		subs:       make(map[*Subscription]struct{}),
		subBufSize: subscriberBufferSize,
	}
}

// Publish enqueues a chat event for fan-out. Best effort: a full hub
// drops the event and logs a warning, it never blocks the caller.
func (h *Hub) Publish(message domain.ChatMessage) {
	select {
	case h.publish <- message:
	default:
		h.log.Warn("Hub publish queue full, dropping message",
			"user_email", message.UserEmail)
	}
}

// Subscribe attaches a new receive handle. Events published before the
// subscription existed are missed, there is no replay.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan domain.ChatMessage, h.subBufSize)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug("Subscriber attached", "total", count)
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug("Subscriber detached", "total", count)
}

// Run is the hub's dispatch loop, a contract.Worker. It is the single
// serialization point: fan-out order equals publish order for every
// subscriber.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case message := <-h.publish:
			h.fanout(message)
		case <-ctx.Done():
			h.log.Debug("Context done, stopping hub dispatch")
			return nil
		}
	}
}

func (h *Hub) fanout(message domain.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- message:
		default:
			h.log.Warn("Slow subscriber, dropping message for it",
				"user_email", message.UserEmail)
		}
	}
}
