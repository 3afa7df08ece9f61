package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "org.lifecycle"

// Event types carried on the lifecycle exchange.
const (
	TypeOrgCreated = "org.created"
	TypeOrgRenamed = "org.renamed"
	TypeOrgDeleted = "org.deleted"
)

// LifecycleEvent announces an organization lifecycle transition to
// downstream consumers. Delivery is best effort.
type LifecycleEvent struct {
	Type             string    `json:"type"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	PreviousName     string    `json:"previous_name,omitempty"`
	StorageTable     string    `json:"storage_table"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Publisher writes lifecycle events to a durable topic exchange.
type Publisher struct {
	url        string
	connection *amqp.Connection
	channel    *amqp.Channel
	logger     *zap.Logger
	mutex      sync.Mutex
}

func NewPublisher(url string, logger *zap.Logger) *Publisher {
	return &Publisher{
		url:    url,
		logger: logger,
	}
}

func (p *Publisher) Connect() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.connection != nil && !p.connection.IsClosed() {
		return nil // Already connected
	}

	var conn *amqp.Connection
	var err error

	// Retry connection with exponential backoff
	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.Dial(p.url)
		if err == nil {
			break
		}

		p.logger.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < 5 {
			backoff := time.Duration(attempt) * time.Second
			time.Sleep(backoff)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after 5 attempts: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.connection = conn
	p.channel = channel
	p.logger.Info("Lifecycle event publisher connected", zap.String("exchange", exchangeName))
	return nil
}

func (p *Publisher) Publish(ctx context.Context, event LifecycleEvent) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		return fmt.Errorf("publisher is not connected")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		exchangeName,
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Lifecycle event published",
		zap.String("type", event.Type),
		zap.String("organization", event.OrganizationName))
	return nil
}

func (p *Publisher) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.channel != nil && !p.channel.IsClosed() {
		p.channel.Close()
	}

	if p.connection != nil && !p.connection.IsClosed() {
		if err := p.connection.Close(); err != nil {
			p.logger.Error("Error closing RabbitMQ connection", zap.Error(err))
			return err
		}
	}

	p.logger.Info("Lifecycle event publisher closed")
	return nil
}
