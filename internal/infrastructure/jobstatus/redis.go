package jobstatus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"file-manager-api/config"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// statuses expire on their own; a job older than a day is history
const statusTTL = 24 * time.Hour

var ErrUnknownJob = errors.New("unknown job id")

type Store struct {
	logger *zap.Logger
	client *redis.Client
}

func New(ctx context.Context, logger *zap.Logger, cfg config.Redis, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis connected successfully")

	return &Store{logger: logger, client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) SetStatus(ctx context.Context, jobID uuid.UUID, status string) error {
	if err := s.client.Set(ctx, key(jobID), status, statusTTL).Err(); err != nil {
		return fmt.Errorf("set job status: %w", err)
	}

	return nil
}

func (s *Store) GetStatus(ctx context.Context, jobID uuid.UUID) (string, error) {
	status, err := s.client.Get(ctx, key(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrUnknownJob
		}
		return "", fmt.Errorf("get job status: %w", err)
	}

	return status, nil
}

func key(jobID uuid.UUID) string { return "job:" + jobID.String() }
