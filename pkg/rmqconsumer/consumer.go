package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-manager-api/config"
	"file-manager-api/internal/infrastructure/mq"
)

// retryHeader counts how many times a job has been republished after a
// handler failure; past cfg.MaxRetries the job is dead-lettered.
const retryHeader = "x-retry-count"

// HandlerFunc processes one decoded job. A nil return acknowledges the
// delivery; an error sends it back through the retry/dead-letter path.
type HandlerFunc func(ctx context.Context, job mq.Job) error

type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	conn       *amqp091.Connection
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
	handlers   map[string]HandlerFunc
	mCounter   *prometheus.CounterVec
}

func New(cfg config.MQ, logger *zap.Logger, mCounter *prometheus.CounterVec) *Consumer {
	return &Consumer{
		cfg:      cfg,
		log:      logger,
		handlers: make(map[string]HandlerFunc),
		mCounter: mCounter,
	}
}

// Register binds a job kind to its handler. Must be called before
// DeliveryWorker starts.
func (c *Consumer) Register(kind string, h HandlerFunc) {
	c.handlers[kind] = h
}

func (c *Consumer) Connect(dsn string) error {
	var err error
	c.conn, err = amqp091.Dial(dsn)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	c.chConsume, err = c.conn.Channel()
	if err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	var err error
	if err = c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	// dead-letter exchange and queue for jobs that exhausted their retries
	dlx := c.cfg.Exchange + ".dlx"
	if err = c.chConsume.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("dlx declare: %w", err)
	}
	if _, err = c.chConsume.QueueDeclare(
		c.cfg.QueueName+".dlq",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("dlq declare: %w", err)
	}
	if err = c.chConsume.QueueBind(c.cfg.QueueName+".dlq", "dead", dlx, false, nil); err != nil {
		return fmt.Errorf("dlq bind: %w", err)
	}

	if _, err = c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		mq.DeadLetterArgs(c.cfg),
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range []string{mq.KindUpload} {
		if err = c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err = c.chConsume.Qos(c.cfg.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var cerr error
	c.chDelivery, cerr = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if cerr != nil {
		return fmt.Errorf("consume: %w", cerr)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				return
			}
			c.delivery(ctx, msg)
		case <-ctx.Done():
			c.chConsume.Close()
			return
		}
	}
}

func (c *Consumer) delivery(ctx context.Context, msg amqp091.Delivery) {
	h, ok := c.handlers[msg.RoutingKey]
	if !ok {
		c.log.Warn("no handler for job kind, dropping",
			zap.String("kind", msg.RoutingKey),
			zap.String("job_id", msg.MessageId),
		)
		_ = msg.Ack(false)
		return
	}

	var job mq.Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		// a body that never parses would loop forever with requeue
		c.log.Error("undecodable job body, dead-lettering",
			zap.String("job_id", msg.MessageId),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
		return
	}

	// the consumer may hold a job at most this long before it counts as
	// abandoned; keep it above worst-case processing time
	jobCtx, cancel := context.WithTimeout(ctx, c.cfg.ConsumerTimeout)
	defer cancel()

	if err := h(jobCtx, job); err != nil {
		c.retryOrDeadLetter(msg, job, err)
		return
	}

	_ = msg.Ack(false)
	if c.mCounter != nil {
		c.mCounter.WithLabelValues("jobs_completed_total").Inc()
	}
	c.log.Info("job completed", zap.String("job_id", job.ID.String()))
}

func (c *Consumer) retryOrDeadLetter(msg amqp091.Delivery, job mq.Job, jobErr error) {
	if c.mCounter != nil {
		c.mCounter.WithLabelValues("jobs_failed_total").Inc()
	}

	retries := RetryCount(msg.Headers)
	if retries >= c.cfg.MaxRetries {
		c.log.Error("job failed, dead-lettering",
			zap.String("job_id", job.ID.String()),
			zap.Int("retries", retries),
			zap.Error(jobErr),
		)
		_ = msg.Nack(false, false)
		return
	}

	c.log.Warn("job failed, retrying",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry", retries+1),
		zap.Error(jobErr),
	)
	if err := c.republish(msg, retries+1); err != nil {
		// broker-side redelivery as the fallback; loses the retry count
		c.log.Error("job republish error", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (c *Consumer) republish(msg amqp091.Delivery, retries int) error {
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries)

	return c.chConsume.Publish(
		c.cfg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp091.Publishing{
			Headers:      headers,
			ContentType:  msg.ContentType,
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageId,
			Timestamp:    msg.Timestamp,
			Type:         msg.Type,
			Body:         msg.Body,
		},
	)
}

// RetryCount reads the retry header; brokers hand header numbers back in
// several integer widths.
func RetryCount(headers amqp091.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
