package ports

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"

	"file-manager-api/internal/domain/file"
)

type FileService interface {
	// EnqueueUpload accepts a multipart file for asynchronous processing
	// and returns the job id; the record exists only after a worker
	// finishes the job.
	EnqueueUpload(ctx context.Context, ownerUUID file.UUID, in *multipart.FileHeader) (uuid.UUID, error)
	FindFiles(ctx context.Context, ownerUUID file.UUID, page int) (file.Files, error)
	UpdateFile(ctx context.Context, ownerUUID, fileUUID file.UUID, upd file.Update) (*file.File, error)
	DeleteFile(ctx context.Context, ownerUUID, fileUUID file.UUID) error
	JobStatus(ctx context.Context, jobID uuid.UUID) (string, error)
}
