package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func startHub(t *testing.T, publishBufferSize, subscriberBufferSize int) *Hub {
	t.Helper()
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), publishBufferSize, subscriberBufferSize)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()
	return hub
}

func receiveOne(t *testing.T, subscription *Subscription) domain.ChatMessage {
	t.Helper()
	select {
	case message := <-subscription.C():
		return message
	case <-time.After(time.Second):
		t.Fatal("expected a message")
		return domain.ChatMessage{}
	}
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, 16, 16)

	subscription := hub.Subscribe()
	defer subscription.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(domain.NewChatMessage("a@b.c", "a", fmt.Sprintf("message %d", i)))
	}

	for i := 0; i < 5; i++ {
		message := receiveOne(t, subscription)
		req.Equal(fmt.Sprintf("message %d", i), message.Content)
	}
}

func TestHub_EverySubscriberReceivesEveryMessage(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, 16, 16)

	first := hub.Subscribe()
	defer first.Close()
	second := hub.Subscribe()
	defer second.Close()

	hub.Publish(domain.NewChatMessage("a@b.c", "a", "hello everyone"))

	req.Equal("hello everyone", receiveOne(t, first).Content)
	req.Equal("hello everyone", receiveOne(t, second).Content)
}

func TestHub_NoReplayForLateSubscribers(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, 16, 16)

	early := hub.Subscribe()
	defer early.Close()

	hub.Publish(domain.NewChatMessage("a@b.c", "a", "before"))
	req.Equal("before", receiveOne(t, early).Content)

	late := hub.Subscribe()
	defer late.Close()

	hub.Publish(domain.NewChatMessage("a@b.c", "a", "after"))
	req.Equal("after", receiveOne(t, early).Content)
	req.Equal("after", receiveOne(t, late).Content)

	select {
	case message := <-late.C():
		req.Failf("unexpected replay", "got %q", message.Content)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberDropsWithoutBlockingOthers(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, 16, 1)

	// Nobody drains this one; its buffer holds a single message.
	stalled := hub.Subscribe()
	defer stalled.Close()

	healthy := hub.Subscribe()
	defer healthy.Close()

	// Pace the publishes on the healthy subscriber so each fan-out has
	// completed before the next publish; the stalled buffer is full
	// from the second message on.
	for i := 0; i < 4; i++ {
		hub.Publish(domain.NewChatMessage("a@b.c", "a", fmt.Sprintf("message %d", i)))
		req.Equal(fmt.Sprintf("message %d", i), receiveOne(t, healthy).Content)
	}

	// The stalled one kept only what fit its buffer.
	req.Equal("message 0", receiveOne(t, stalled).Content)
	select {
	case message := <-stalled.C():
		req.Failf("unexpected delivery", "got %q", message.Content)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), 2, 2)
	// Dispatch loop intentionally not running: the publish queue fills
	// up and further publishes must drop, not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hub.Publish(domain.NewChatMessage("a@b.c", "a", "flood"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full hub")
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, 16, 16)

	subscription := hub.Subscribe()
	subscription.Close()
	// Close is idempotent.
	subscription.Close()

	hub.Publish(domain.NewChatMessage("a@b.c", "a", "into the void"))

	select {
	case message := <-subscription.C():
		req.Failf("unexpected delivery", "got %q", message.Content)
	case <-time.After(50 * time.Millisecond):
	}
}
