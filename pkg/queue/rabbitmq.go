package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tg-market/pkg/config"
	"tg-market/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ListingExchange         = "listings"
	ModerationQueueName     = "listing_moderation_queue"
	RoutingListingCreated   = "listing_created"
	EventTypeListingCreated = "listing_created"

	maxPriority = 10
)

// ListingEvent is published whenever a listing enters the system.
type ListingEvent struct {
	Type        string    `json:"type"`
	ListingID   string    `json:"listing_id"`
	AuthorID    string    `json:"author_id"`
	PostType    string    `json:"post_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPremium   bool      `json:"is_premium"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func URL(cfg *config.Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		ListingExchange, // name
		"direct",        // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		ModerationQueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		amqp.Table{"x-max-priority": maxPriority},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(ModerationQueueName, RoutingListingCreated, ListingExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
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

// clampPriority keeps priority inside the queue's x-max-priority range.
func clampPriority(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > maxPriority {
		return maxPriority
	}
	return uint8(p)
}

func (c *Client) PublishListingEvent(ctx context.Context, event ListingEvent) error {
	if event.Type == "" {
		event.Type = EventTypeListingCreated
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.PublishWithContext(
		ctx,
		ListingExchange,       // exchange
		RoutingListingCreated, // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     clampPriority(event.Priority),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish listing=%s to exchange=%s: %v", event.ListingID, ListingExchange, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published %s listing=%s priority=%d", event.Type, event.ListingID, event.Priority)
	return nil
}

func decodeEvent(body []byte) (ListingEvent, error) {
	var event ListingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ListingEvent{}, err
	}
	if event.ListingID == "" {
		return ListingEvent{}, fmt.Errorf("event without listing_id")
	}
	return event, nil
}

// ConsumeListingEvents acks events the handler accepts and requeues the ones it fails.
// Malformed bodies are dropped.
func (c *Client) ConsumeListingEvents(handler func(ListingEvent) error) error {
	msgs, err := c.channel.Consume(
		ModerationQueueName, // queue
		"",                  // consumer
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,                 // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from %s", ModerationQueueName)

	go func() {
		for msg := range msgs {
			event, err := decodeEvent(msg.Body)
			if err != nil {
				c.logger.Error("[RABBITMQ] Dropping malformed event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for listing=%s: %v", event.ListingID, err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

func (c *Client) QueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(ModerationQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
