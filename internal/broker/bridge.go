package appkafka

import (
	"context"
	"sync"

	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/metrics"
)

var logg = logger.New()

// Bridge forwards events published locally to Kafka. Events that came in
// from Kafka are never sent back out.
type Bridge struct {
	bus    *events.Bus
	writer KafkaWriter
	buffer int

	wg sync.WaitGroup
}

func NewBridge(bus *events.Bus, writer KafkaWriter, buffer int) *Bridge {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bridge{bus: bus, writer: writer, buffer: buffer}
}

// Start forwards events until ctx ends. Writes happen off the publishing
// goroutine, so a slow broker drops events rather than stalling writers.
func (b *Bridge) Start(ctx context.Context) {
	stream := b.bus.Stream(ctx, events.Filter{}, b.buffer)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for e := range stream {
			b.forward(e)
		}
	}()
	logg.Info("broker", "Kafka bridge started")
}

func (b *Bridge) forward(e events.Event) {
	if e.Remote || e.Origin != b.bus.Origin() {
		return
	}
	msg, err := Encode(e)
	if err != nil {
		metrics.KafkaMessages.WithLabelValues("out", "error").Inc()
		logg.Error("broker", "Could not encode event", err)
		return
	}
	if err := b.writer.WriteMessages(msg); err != nil {
		metrics.KafkaMessages.WithLabelValues("out", "error").Inc()
		logg.Error("broker", "Kafka write failed, event not forwarded", err)
		return
	}
	metrics.KafkaMessages.WithLabelValues("out", "ok").Inc()
}

// Wait blocks until the forwarding goroutine has drained after ctx ended.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// Close waits for forwarding to stop and closes the writer.
func (b *Bridge) Close() error {
	b.Wait()
	return b.writer.Close()
}
