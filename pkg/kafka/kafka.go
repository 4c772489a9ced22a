package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

const (
	BookEventsTopic = "book-events"

	EventTypeCreated = "CREATED"
	EventTypeUpdated = "UPDATED"
	EventTypeDeleted = "DELETED"
)

// BookEvent notifies collaborators that a book changed and any
// rendered list or stats view derived from it is stale.
type BookEvent struct {
	Type      string    `json:"type"`
	BookID    string    `json:"bookId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProducer(cfg Config) (sarama.AsyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForLocal
	defaultCfg.Producer.Return.Successes = false
	// delivery failures are reported on Errors(); the consumer of this
	// producer is responsible for draining that channel
	defaultCfg.Producer.Return.Errors = true

	return sarama.NewAsyncProducer(cfg.Addrs, defaultCfg)
}
