package worker

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	appkafka "github.com/shivamghaware/BlogIn/internal/broker"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/logger"
)

var logg = logger.New()

// Handler processes one change event read from Kafka.
type Handler interface {
	Handle(ctx context.Context, e events.Event) error
}

type HandlerFunc func(ctx context.Context, e events.Event) error

func (f HandlerFunc) Handle(ctx context.Context, e events.Event) error { return f(ctx, e) }

// Worker consumes change events from Kafka and hands them to a pool of
// goroutines running the same Handler.
type Worker struct {
	reader       appkafka.KafkaReader
	handler      Handler
	workerCount  int
	jobQueueSize int
}

// New creates a Worker. Non-positive sizes default from the CPU count.
func New(reader appkafka.KafkaReader, handler Handler, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		reader:       reader,
		handler:      handler,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run reads until ctx is cancelled, then waits for in-flight events.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan kafka.Message, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into the job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- kafka.Message) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			logg.Debug("worker", "Kafka read error, backing off: "+err.Error())
			if !waitWithContext(ctx, backoff) {
				return
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			if !waitWithContext(ctx, 50*time.Millisecond) {
				return
			}
			continue
		}

		for queued := false; !queued; {
			select {
			case jobs <- msg:
				queued = true
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				logg.Info("worker", "Queue full, waiting to enqueue Kafka message")
			}
		}
	}
}

// processLoop decodes queued messages and runs the handler on them.
// Messages already queued at shutdown are still handled.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan kafka.Message) {
	for msg := range jobs {
		e, err := appkafka.Decode(msg)
		if err != nil {
			logg.Error("worker", "Invalid event in Kafka message", err)
			continue
		}
		if err := w.handler.Handle(ctx, e); err != nil {
			logg.Error("worker", "Failed to handle "+string(e.Kind)+" event", err)
		}
	}
}

// waitWithContext waits for d or until ctx is cancelled.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader. The store belongs to the caller.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}
	return nil
}
