package file

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"file-manager-api/internal/domain/file"
	"file-manager-api/internal/infrastructure/db/postgres"
)

// DB is the slice of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
}

func NewRepository(db DB) file.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchFiles(ctx context.Context, ownerUUID file.UUID, page int) (file.Files, error) {
	rows, err := r.db.Query(ctx, SelectFiles, ownerUUID, page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fs Files
	for rows.Next() {
		f := new(File)

		if err = rows.Scan(
			&f.ID,
			&f.UUID,
			&f.OwnerUUID,

			&f.Bucket,
			&f.StorageKey,
			&f.FileName,
			&f.MimeType,
			&f.SizeBytes,
			&f.DownloadURL,

			&f.CreatedAt,
			&f.UpdatedAt,
			&f.DeletedAt,
		); err != nil {
			return nil, err
		}

		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&fs), nil
}

func (r *Repository) FetchFileByID(ctx context.Context, fileUUID file.UUID) (*file.File, error) {
	f := new(File)
	err := r.scanRow(r.db.QueryRow(ctx, SelectFileByID, fileUUID), f)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) UpsertFile(ctx context.Context, req *file.File) (*file.File, error) {
	f := new(File)

	err := r.scanRow(r.db.QueryRow(
		ctx,
		UpsertFile,
		req.OwnerUUID, req.Bucket, req.StorageKey, req.FileName, req.MimeType, req.SizeBytes, req.DownloadURL,
	), f)
	if err != nil {
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) UpdateFile(ctx context.Context, fileUUID, ownerUUID file.UUID, upd file.Update) (*file.File, error) {
	f := new(File)

	err := r.scanRow(r.db.QueryRow(ctx, UpdateFileByUUID,
		fileUUID, ownerUUID, upd.FileName, upd.StorageKey, upd.SizeBytes,
	), f)
	if err != nil {
		if postgres.IsPgUniqueViolation(err) {
			return nil, file.ErrStorageKeyTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) DeleteFile(ctx context.Context, fileUUID, ownerUUID file.UUID) (*file.File, error) {
	f := new(File)

	err := r.scanRow(r.db.QueryRow(ctx, SoftDeleteFileByUUID, fileUUID, ownerUUID), f)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(f), nil
}

func (r *Repository) scanRow(row pgx.Row, f *File) error {
	return row.Scan(
		&f.ID,
		&f.UUID,
		&f.OwnerUUID,

		&f.Bucket,
		&f.StorageKey,
		&f.FileName,
		&f.MimeType,
		&f.SizeBytes,
		&f.DownloadURL,

		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
}
