package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PaymentEventsQueueName = "payment_events_queue"
	PaymentEventsExchange  = "payment_events"
	PaymentEventsKey       = "transaction"
)

// Event routing types published by the reconciliation engine.
const (
	EventTransactionCompleted = "transaction.completed"
	EventTransactionFailed    = "transaction.failed"
	EventTransactionUnmatched = "transaction.unmatched"
)

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		PaymentEventsExchange, // name
		"direct",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		PaymentEventsQueueName, // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		PaymentEventsQueueName, // queue name
		PaymentEventsKey,       // routing key
		PaymentEventsExchange,  // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PaymentEvent is the message body published for downstream consumers
// (notifications, ops alerting).
type PaymentEvent struct {
	Event         string `json:"event"`
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id,omitempty"`
	BookingID     string `json:"booking_id,omitempty"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ExternalRef   string `json:"external_ref,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (c *Client) PublishPaymentEvent(event PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	err = c.channel.Publish(
		PaymentEventsExchange, // exchange
		PaymentEventsKey,      // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish %s for transaction %s: %v", event.Event, event.TransactionID, err)
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published %s for transaction %s", event.Event, event.TransactionID)
	return nil
}

// ConsumePaymentEvents consumes payment events from the queue.
func (c *Client) ConsumePaymentEvents(handler func(event PaymentEvent) error) error {
	msgs, err := c.channel.Consume(
		PaymentEventsQueueName, // queue
		"",                     // consumer
		false,                  // auto-ack
		false,                  // exclusive
		false,                  // no-local
		false,                  // no-wait
		nil,                    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			var event PaymentEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal payment event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for %s: %v", event.Event, err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}
