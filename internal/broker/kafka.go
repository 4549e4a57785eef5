// Package appkafka carries change events between BlogIn processes over Kafka.
package appkafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shivamghaware/BlogIn/internal/events"
	config "github.com/shivamghaware/BlogIn/internal/init"
)

// KafkaWriter defines an interface for writing messages to Kafka.
type KafkaWriter interface {
	WriteMessages(messages ...kafka.Message) error
	Close() error
}

// KafkaReader defines an interface for reading messages from Kafka.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Partition    int // used for low-level leader writes
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	GroupID      string
}

// ConfigFrom maps application settings onto a KafkaConfig. groupID
// overrides the configured consumer group when non-empty.
func ConfigFrom(cfg *config.Config, groupID string) KafkaConfig {
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}
	return KafkaConfig{
		Brokers:      []string{cfg.KafkaBroker},
		Topic:        cfg.KafkaTopic,
		Partition:    cfg.KafkaPartition,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
		GroupID:      groupID,
	}
}

// RealKafkaWriter implements KafkaWriter using kafka.Conn (low-level writes).
type RealKafkaWriter struct {
	conn   *kafka.Conn
	config KafkaConfig
}

// NewKafkaWriter dials the partition leader for cfg.Topic.
func NewKafkaWriter(ctx context.Context, cfg KafkaConfig) (*RealKafkaWriter, error) {
	if len(cfg.Brokers) == 0 || cfg.Brokers[0] == "" {
		cfg.Brokers = []string{"localhost:9092"}
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	conn, err := kafka.DialLeader(ctx, "tcp", cfg.Brokers[0], cfg.Topic, cfg.Partition)
	if err != nil {
		return nil, fmt.Errorf("dial kafka leader %s: %w", cfg.Brokers[0], err)
	}
	return &RealKafkaWriter{conn: conn, config: cfg}, nil
}

func (w *RealKafkaWriter) WriteMessages(messages ...kafka.Message) error {
	if w.conn == nil {
		return errors.New("kafka connection is nil")
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout)); err != nil {
		return err
	}
	_, err := w.conn.WriteMessages(messages...)
	return err
}

func (w *RealKafkaWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// RealKafkaReader implements KafkaReader using kafka.Reader (consumer group).
type RealKafkaReader struct {
	reader *kafka.Reader
}

func NewKafkaReader(cfg KafkaConfig) KafkaReader {
	if len(cfg.Brokers) == 0 || cfg.Brokers[0] == "" {
		cfg.Brokers = []string{"localhost:9092"}
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        cfg.ReadTimeout,
		CommitInterval: time.Second,
	})
	return &RealKafkaReader{reader: r}
}

func (r *RealKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return r.reader.ReadMessage(ctx)
}

func (r *RealKafkaReader) Close() error {
	return r.reader.Close()
}

// Encode turns an event into a message keyed by its kind.
func Encode(e events.Event) (kafka.Message, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{Key: []byte(e.Kind), Value: raw, Time: e.At}, nil
}

// Decode parses a message produced by Encode and marks it remote.
func Decode(msg kafka.Message) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return events.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Signal == "" || e.Kind == "" {
		return events.Event{}, errors.New("decode event: missing signal or kind")
	}
	e.Remote = true
	return e, nil
}
