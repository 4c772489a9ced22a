package handler

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/bookshelf-app/bookshelf-service/pkg/kafka"
)

// EventLog signals collaborators that a book changed; consumers use it
// to invalidate previously rendered list and stats views.
type EventLog interface {
	Log(ev kafka.BookEvent) error
}

type eventLog struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger
}

func NewEventLog(producer sarama.AsyncProducer, topic string, log *zap.Logger) *eventLog {
	l := &eventLog{
		producer: producer,
		topic:    topic,
		log:      log.Named("events"),
	}
	// the Errors() channel must be drained or the producer dispatcher
	// blocks and Input() sends start hanging the publishing handlers
	go l.drainErrors()
	return l
}

func (l *eventLog) drainErrors() {
	for err := range l.producer.Errors() {
		l.log.Warn("event delivery", zap.Error(err))
	}
}

func (l *eventLog) Log(ev kafka.BookEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: l.topic, Value: sarama.StringEncoder(data)}
	l.producer.Input() <- msg
	return nil
}

// nopEventLog is used when Kafka is not configured.
type nopEventLog struct{}

func NewNopEventLog() nopEventLog { return nopEventLog{} }

func (nopEventLog) Log(kafka.BookEvent) error { return nil }

func bookEvent(eventType, bookID string) kafka.BookEvent {
	return kafka.BookEvent{
		Type:      eventType,
		BookID:    bookID,
		Timestamp: time.Now().UTC(),
	}
}
