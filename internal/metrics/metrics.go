package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogin_store_writes_total",
		Help: "Persistence adapter writes by result",
	}, []string{"result"})

	StoreReadFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogin_store_read_fallbacks_total",
		Help: "Reads that degraded to the default value because of a decode or backend failure",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogin_events_published_total",
		Help: "Change events published on the local bus",
	}, []string{"signal", "kind"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogin_events_dropped_total",
		Help: "Events dropped because a stream subscriber's buffer was full",
	})

	Suggestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogin_suggestions_total",
		Help: "Tag suggestion requests by result",
	}, []string{"result"})

	KafkaMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogin_kafka_messages_total",
		Help: "Change events exchanged with Kafka by direction and result",
	}, []string{"direction", "result"})
)
