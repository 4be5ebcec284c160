package ports

import (
	"context"

	"file-manager-api/pkg/rmqconsumer"
)

type RMQConsumer interface {
	Connect(dsn string) error
	Init() error
	Register(kind string, h rmqconsumer.HandlerFunc)
	DeliveryWorker(ctx context.Context)
}
