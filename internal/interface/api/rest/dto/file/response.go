package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		UUID        uuid.UUID `json:"uuid"`
		FileName    string    `json:"file_name"`
		MimeType    string    `json:"mime_type"`
		SizeBytes   uint64    `json:"size_bytes"`
		StorageKey  string    `json:"storage_key"`
		DownloadURL string    `json:"download_url"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
	Files []File

	ListResponse struct {
		Files Files `json:"files"`
	}
	AcceptedResponse struct {
		Message string    `json:"message"`
		JobID   uuid.UUID `json:"job_id"`
	}
	UpdatedResponse struct {
		Message string `json:"message"`
		File    File   `json:"file"`
	}
	JobStatusResponse struct {
		JobID  uuid.UUID `json:"job_id"`
		Status string    `json:"status"`
	}
)
