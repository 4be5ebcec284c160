package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID        uint64
		UUID      uuid.UUID
		OwnerUUID uuid.UUID

		Bucket      string
		StorageKey  string
		FileName    string
		MimeType    string
		SizeBytes   uint64
		DownloadURL string

		CreatedAt time.Time
		UpdatedAt time.Time
		DeletedAt *time.Time
	}
	Files []*File
)
