package ports

import (
	"context"

	"github.com/google/uuid"
)

type JobStatusStore interface {
	SetStatus(ctx context.Context, jobID uuid.UUID, status string) error
	GetStatus(ctx context.Context, jobID uuid.UUID) (string, error)
}
