package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"file-manager-api/internal/application/ports"
	domain "file-manager-api/internal/domain/file"
	"file-manager-api/internal/infrastructure/jobstatus"
	"file-manager-api/internal/infrastructure/mq"
)

// UploadProcessor materializes upload jobs into stored bytes plus a file
// record. It runs on the consumer side of the queue and must tolerate
// redelivery of a job it already processed.
type UploadProcessor struct {
	storage        ports.ObjectStorage
	fileRepository domain.Repository
	status         ports.JobStatusStore
	mCounter       *prometheus.CounterVec
	logger         *zap.Logger
}

func NewUploadProcessor(
	storage ports.ObjectStorage,
	fileRepository domain.Repository,
	status ports.JobStatusStore,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) *UploadProcessor {
	return &UploadProcessor{
		storage:        storage,
		fileRepository: fileRepository,
		status:         status,
		mCounter:       mCounter,
		logger:         logger,
	}
}

// HandleUpload is the rmqconsumer handler for mq.KindUpload.
//
// Two-phase write: bytes land under staging/ first, the record is
// committed, then the object is copied to its final key. A crash in
// between leaves debris only under staging/, never a record without bytes.
// The record upsert is keyed on the storage key, so a redelivered job ends
// in the same single record.
func (up *UploadProcessor) HandleUpload(ctx context.Context, job mq.Job) error {
	up.setStatus(ctx, job, jobstatus.StatusProcessing)

	content, err := base64.StdEncoding.DecodeString(job.Content)
	if err != nil {
		return up.fail(ctx, job, fmt.Errorf("decode payload: %w", err))
	}
	if uint64(len(content)) != job.SizeBytes {
		up.logger.Warn("job payload size mismatch, trusting the bytes",
			zap.String("job_id", job.ID.String()),
			zap.Uint64("declared", job.SizeBytes),
			zap.Int("actual", len(content)),
		)
	}

	if err = up.storage.EnsureBucket(ctx); err != nil {
		return up.fail(ctx, job, err)
	}

	staging := stagingKey(job)
	if err = up.storage.PutObject(ctx, staging, content, job.MimeType); err != nil {
		return up.fail(ctx, job, fmt.Errorf("stage bytes: %w", err))
	}

	rec := &domain.File{
		OwnerUUID:   job.OwnerID,
		Bucket:      up.storage.GetBucket(),
		StorageKey:  job.StorageKey,
		FileName:    job.FileName,
		MimeType:    job.MimeType,
		SizeBytes:   uint64(len(content)),
		DownloadURL: up.storage.GetPublicURL(job.StorageKey),
	}
	if _, err = up.fileRepository.UpsertFile(ctx, rec); err != nil {
		// bytes are staged but no record points at them; the staging
		// prefix is the sweep target for this exact situation
		up.logger.Error("record create failed, staged object left behind",
			zap.String("job_id", job.ID.String()),
			zap.String("staging_key", staging),
			zap.Error(err),
		)
		return up.fail(ctx, job, fmt.Errorf("create record: %w", err))
	}

	if err = up.storage.CopyObject(ctx, staging, job.StorageKey); err != nil {
		return up.fail(ctx, job, fmt.Errorf("promote staged bytes: %w", err))
	}
	if err = up.storage.RemoveObject(ctx, staging); err != nil {
		up.logger.Warn("staging cleanup failed",
			zap.String("staging_key", staging),
			zap.Error(err),
		)
	}

	up.setStatus(ctx, job, jobstatus.StatusCompleted)
	up.mCounter.WithLabelValues("files_created_total").Inc()

	return nil
}

func (up *UploadProcessor) fail(ctx context.Context, job mq.Job, err error) error {
	up.setStatus(ctx, job, jobstatus.StatusFailed)
	return err
}

func (up *UploadProcessor) setStatus(ctx context.Context, job mq.Job, status string) {
	if err := up.status.SetStatus(ctx, job.ID, status); err != nil {
		up.logger.Warn("job status write failed",
			zap.String("job_id", job.ID.String()),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func stagingKey(job mq.Job) string {
	return "staging/" + job.ID.String() + "/" + path.Base(job.StorageKey)
}
