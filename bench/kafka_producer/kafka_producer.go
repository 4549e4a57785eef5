package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	appkafka "github.com/shivamghaware/BlogIn/internal/broker"
	"github.com/shivamghaware/BlogIn/internal/events"
)

// Kinds cycled through by the producer, roughly matching UI write traffic.
var kinds = []events.Kind{
	events.KindLike, events.KindLike, events.KindComment, events.KindBookmark, events.KindFollow, events.KindPost,
}

func main() {
	var (
		total       int
		batchSize   int
		numWorkers  int
		kafkaBroker string
		topic       string
	)
	flag.IntVar(&total, "n", 100000, "total number of events to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size for sending events")
	flag.IntVar(&numWorkers, "workers", 4, "number of parallel producers")
	flag.StringVar(&kafkaBroker, "broker", "localhost:9092", "Kafka broker address")
	flag.StringVar(&topic, "topic", "blogin-events", "Kafka topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := &kafka.Writer{
		Addr:     kafka.TCP(kafkaBroker),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
	}
	defer w.Close()

	// Events carry a foreign origin so relays on running servers republish them.
	origin := "bench-" + uuid.NewString()
	start := time.Now()

	var successCount uint64
	var failCount uint64

	jobs := make(chan int, total)
	var wg sync.WaitGroup

	send := func(batch []kafka.Message) {
		if err := w.WriteMessages(context.Background(), batch...); err != nil {
			atomic.AddUint64(&failCount, uint64(len(batch)))
			fmt.Printf("write error: %v\n", err)
			return
		}
		atomic.AddUint64(&successCount, uint64(len(batch)))
	}

	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				e := events.Event{
					Signal: events.DataChanged,
					Kind:   kinds[i%len(kinds)],
					ID:     fmt.Sprintf("bench-post-%d", i%50),
					Origin: origin,
					At:     time.Now().UTC(),
				}
				msg, err := appkafka.Encode(e)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("encode error: %v\n", err)
					continue
				}

				batch = append(batch, msg)
				if len(batch) >= batchSize {
					send(batch)
					batch = make([]kafka.Message, 0, batchSize)
				}
			}

			if len(batch) > 0 {
				send(batch)
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total events: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}
