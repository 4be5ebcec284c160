package mq

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"file-manager-api/config"
)

// "Rely on metrics, not guesses."
const bufferSize = 128

// KindUpload is the only job kind the pipeline carries; the routing key on
// the wire equals the kind.
const KindUpload = "file.upload"

type (
	InputCh  = chan Job
	RabbitMQ struct {
		cfg   config.MQ
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
	// Job is one unit of upload work. The record does not exist until a
	// worker finishes it; the storage key is fixed at enqueue time so a
	// redelivered job lands on the same object and record.
	Job struct {
		ID         uuid.UUID `json:"job_id"`
		TS         time.Time `json:"time_stamp"`
		Kind       string    `json:"job_kind"`
		OwnerID    uuid.UUID `json:"owner_id"`
		FileName   string    `json:"file_name"`
		MimeType   string    `json:"mime_type"`
		SizeBytes  uint64    `json:"size_bytes"`
		StorageKey string    `json:"storage_key"`
		Content    string    `json:"file_content"` // base64
	}
)

// DeadLetterArgs must be identical everywhere the work queue is declared,
// or the broker rejects the declaration.
func DeadLetterArgs(cfg config.MQ) amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange":    cfg.Exchange + ".dlx",
		"x-dead-letter-routing-key": "dead",
	}
}

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
		in:  make(chan Job, bufferSize),
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "filemanagerapi",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig: nil,
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return err
}

func (r *RabbitMQ) Init() error {
	var err error
	if err = r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		DeadLetterArgs(r.cfg),
	)
	if err != nil {
		return err
	}

	for _, rk := range []string{KindUpload} {
		if err = r.pubCh.QueueBind(q.Name, rk, r.cfg.Exchange, false, nil); err != nil {
			return err
		}
	}

	return nil
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case j := <-r.in:
			if err := r.publish(ctx, j); err != nil {
				// alert
				r.log.Error("mq publish error",
					zap.String("job_id", j.ID.String()),
					zap.Error(err),
				)
			}
		case <-ctx.Done():
			close(r.in)
			r.pubCh.Close()
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		// alert
		return err
	}

	pub := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    j.ID.String(),
		Timestamp:    j.TS,
		Type:         j.Kind,
		Body:         b,
	}
	if err = r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		j.Kind,
		true,
		false,
		pub,
	); err != nil {
		return err
	}

	return nil
}

func (r *RabbitMQ) GetInputChan() chan Job       { return r.in }
func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }
