package file

import (
	"context"
)

type Repository interface {
	FetchFiles(ctx context.Context, ownerUUID UUID, page int) (Files, error)
	FetchFileByID(ctx context.Context, fileUUID UUID) (*File, error)
	// UpsertFile inserts a record keyed on its unique storage key; a
	// redelivered job lands on the existing row.
	UpsertFile(ctx context.Context, req *File) (*File, error)
	UpdateFile(ctx context.Context, fileUUID, ownerUUID UUID, upd Update) (*File, error)
	DeleteFile(ctx context.Context, fileUUID, ownerUUID UUID) (*File, error)
}
