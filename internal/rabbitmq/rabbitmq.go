package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrDeliveriesClosed = errors.New("deliveries channel closed")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

// Handler processes one decoded dispatch message. A returned error makes
// the delivery eligible for one redelivery.
type Handler func(ctx context.Context, msg models.Message) error

type RabbitMQClient struct {
	log     *slog.Logger
	conn    *amqp.Connection
	channel channel
	queue   string
}

func New(log *slog.Logger, urlForConn string, queueName string) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		log:     log,
		conn:    conn,
		channel: ch,
		queue:   q.Name,
	}, nil
}

// * SendMessage публикует сообщение в формате {type}:{email}:{token}:{code}:{language}
func (r *RabbitMQClient) SendMessage(ctx context.Context, msg models.Message) error {
	const op = "rabbitmq.SendMessage"

	body, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		r.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "text/plain",
			Body:         []byte(body),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * StartReading читает очередь до отмены контекста
// Нераспознанные сообщения отбрасываются, ошибка обработчика дает одну повторную доставку
func (r *RabbitMQClient) StartReading(ctx context.Context, handler Handler) error {
	const op = "rabbitmq.StartReading"

	if err := r.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: %w", op, ErrDeliveriesClosed)
			}

			r.handle(ctx, d, handler)
		}
	}
}

func (r *RabbitMQClient) handle(ctx context.Context, d amqp.Delivery, handler Handler) {
	log := r.log.With(slog.Uint64("delivery_tag", d.DeliveryTag))

	msg, err := models.DecodeMessage(string(d.Body))
	if err != nil {
		log.Error("dropping malformed message", sl.Err(err))

		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}

		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !d.Redelivered

		log.Error("failed to handle message", sl.Err(err), slog.Bool("requeue", requeue))

		if err := d.Nack(false, requeue); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}

		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
