package kafka

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopWaitsForReadersBeforeClosingQueue(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerBufferSize(1),
	)
	require.NoError(t, err)

	var panicked atomic.Bool
	const readers = 4
	for i := 0; i < readers; i++ {
		c.readerWg.Add(1)
		go func() {
			defer c.readerWg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicked.Store(true)
				}
			}()
			for c.enqueue(&inbound{topic: "candles", data: []byte("x")}) {
			}
		}()
	}

	// Drain so senders keep cycling through the send case while Stop runs.
	drained := make(chan struct{})
	go func() {
		for range c.queue {
		}
		close(drained)
	}()

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("queue never closed")
	}
	assert.False(t, panicked.Load(), "enqueue raced a closed queue")
}

func TestStopIsIdempotent(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Stop(ctx))
	require.NoError(t, c.Stop(ctx))
}
