package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulhamidalthaljy/CareConnect/pkg/messaging"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/messaging/memory"
)

func TestPublishSubscribe(t *testing.T) {
	b := memory.NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "chat")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "chat", map[string]string{"text": "hi"}))
	require.NoError(t, b.Publish(ctx, "other", map[string]string{"text": "ignored"}))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"text":"hi"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("expected message")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %s", msg)
	default:
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	b := memory.NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "chat")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestClosedBroker(t *testing.T) {
	b := memory.NewBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "chat", "x"), messaging.ErrClosed)
	_, err := b.Subscribe(context.Background(), "chat")
	assert.ErrorIs(t, err, messaging.ErrClosed)
}
