package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"log/slog"
)

const taskQueue = "polisight.tasks"

// envelope is the wire form of a dispatched task. Only the identifier
// travels; parameters stay on the registry record.
type envelope struct {
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
}

// AMQPDispatcher publishes task identifiers to a RabbitMQ queue. Paired with
// AMQPWorker it moves execution off the request path while the registry
// remains the single owner of task state.
type AMQPDispatcher struct {
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewAMQPDispatcher declares the task queue on the given channel.
func NewAMQPDispatcher(channel *amqp.Channel, logger *slog.Logger) (*AMQPDispatcher, error) {
	q, err := channel.QueueDeclare(
		taskQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare task queue: %w", err)
	}

	return &AMQPDispatcher{
		channel: channel,
		queue:   q.Name,
		logger:  logger,
	}, nil
}

// Dispatch publishes the task identifier for a worker to pick up.
func (d *AMQPDispatcher) Dispatch(ctx context.Context, id string) error {
	body, err := json.Marshal(envelope{TaskID: id})
	if err != nil {
		return fmt.Errorf("marshal task envelope: %w", err)
	}

	err = d.channel.Publish(
		"",      // default exchange
		d.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("publish task: %w", err)
	}

	d.logger.Debug("task published to queue", "task_id", id, "queue", d.queue)
	return nil
}

// AMQPWorker consumes dispatched task identifiers and runs them against the
// registry. It must run in the same process as the registry that issued the
// identifiers: task records are not persisted across processes.
type AMQPWorker struct {
	channel  *amqp.Channel
	registry *Registry
	logger   *slog.Logger
}

// NewAMQPWorker creates a worker bound to the registry.
func NewAMQPWorker(channel *amqp.Channel, registry *Registry, logger *slog.Logger) *AMQPWorker {
	return &AMQPWorker{
		channel:  channel,
		registry: registry,
		logger:   logger,
	}
}

// Start consumes the task queue until the context is cancelled or the
// delivery channel closes.
func (w *AMQPWorker) Start(ctx context.Context) error {
	q, err := w.channel.QueueDeclare(taskQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare task queue: %w", err)
	}

	deliveries, err := w.channel.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume task queue: %w", err)
	}

	w.logger.Info("task worker started", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("task worker stopping")
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("task queue closed")
			}
			w.handle(ctx, delivery)
		}
	}
}

func (w *AMQPWorker) handle(ctx context.Context, delivery amqp.Delivery) {
	var env envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		w.logger.Error("discarding malformed task envelope", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	// Run records operation failures on the task itself; only lookup and
	// conflict errors come back here, and neither is worth a requeue.
	if err := w.registry.Run(ctx, env.TaskID); err != nil {
		w.logger.Error("queued task dispatch failed", "task_id", env.TaskID, "error", err)
	}
	_ = delivery.Ack(false)
}
