package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// ReminderSendsQueue is the durable queue carrying manual reminder jobs from
// the API to cmd/worker.
const ReminderSendsQueue = "reminder_sends"

// SendJob is the payload published per manual reminder.
type SendJob struct {
	ReminderEventID int `json:"reminder_event_id"`
}

// Queue is the publish side used by the handlers.
type Queue interface {
	Publish(queueName string, payload any) error
}

// AMQPQueue publishes JSON messages to RabbitMQ.
type AMQPQueue struct {
	ch *amqp.Channel
}

// NewAMQPQueue opens a channel on the connection and declares the reminder
// queue as durable.
func NewAMQPQueue(conn *amqp.Connection) (*AMQPQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		ReminderSendsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPQueue{ch: ch}, nil
}

func (q *AMQPQueue) Publish(queueName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Body:        body,
		},
	)
}

func (q *AMQPQueue) Close() error {
	return q.ch.Close()
}

// InMemoryQueue records published payloads, for tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	Messages map[string][]any
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{Messages: make(map[string][]any)}
}

func (q *InMemoryQueue) Publish(queueName string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Messages[queueName] = append(q.Messages[queueName], payload)
	return nil
}

var _ Queue = (*AMQPQueue)(nil)
var _ Queue = (*InMemoryQueue)(nil)
