package file

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrForbidden       = errors.New("file belongs to another user")
	ErrPayloadTooLarge = errors.New("file payload exceeds queue transport limit")
	ErrStorageKeyTaken = errors.New("storage key already in use")
)

type (
	ID   uint64
	UUID = uuid.UUID
	File struct {
		UUID      UUID
		OwnerUUID UUID

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

	// Update carries the mutable fields of a record. Nil means keep.
	// Owner never changes.
	Update struct {
		FileName   *string
		StorageKey *string
		SizeBytes  *uint64
	}
)
