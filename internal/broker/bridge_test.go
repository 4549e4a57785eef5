package appkafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shivamghaware/BlogIn/internal/events"
	config "github.com/shivamghaware/BlogIn/internal/init"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeForwardsLocalEvents(t *testing.T) {
	bus := events.NewBus("node-a")
	mk := &MockKafka{}
	b := NewBridge(bus, mk, 8)
	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx)

	bus.Changed(events.Ref{Kind: events.KindPost, ID: "p1"})
	bus.Publish(events.Event{Signal: events.DataChanged, Kind: events.KindPost, ID: "p2", Origin: "node-b", Remote: true})
	bus.Ended("s1")

	require.Eventually(t, func() bool { return len(mk.Written()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, b.Close())

	written := mk.Written()
	require.Len(t, written, 2)
	assert.Equal(t, "post", string(written[0].Key))

	first, err := Decode(written[0])
	require.NoError(t, err)
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, "node-a", first.Origin)
	assert.True(t, first.Remote)

	second, err := Decode(written[1])
	require.NoError(t, err)
	assert.Equal(t, events.SessionEnded, second.Signal)
}

func TestBridgeSurvivesWriteFailures(t *testing.T) {
	bus := events.NewBus("node-a")
	b := NewBridge(bus, &MockKafkaFail{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	b.Start(ctx)

	assert.NotPanics(t, func() { bus.Changed(events.Ref{Kind: events.KindLike, ID: "p1"}) })
	cancel()
	assert.NoError(t, b.Close())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = Decode(kafka.Message{Value: []byte(`{"id":"x"}`)})
	assert.ErrorContains(t, err, "missing signal or kind")
}

func TestMockKafkaLoopback(t *testing.T) {
	mk := &MockKafka{Loopback: true}
	ctx := context.Background()

	_, err := mk.ReadMessage(ctx)
	assert.Error(t, err)

	require.NoError(t, mk.WriteMessages(kafka.Message{Value: []byte("a")}))
	msg, err := mk.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg.Value))
	assert.Zero(t, mk.Pending())
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{KafkaBroker: "kafka:9092", KafkaTopic: "t", KafkaGroupID: "g", KafkaWriteTO: time.Second}

	kc := ConfigFrom(cfg, "")
	assert.Equal(t, []string{"kafka:9092"}, kc.Brokers)
	assert.Equal(t, "g", kc.GroupID)
	assert.Equal(t, time.Second, kc.WriteTimeout)

	assert.Equal(t, "relay-1", ConfigFrom(cfg, "relay-1").GroupID)
}
