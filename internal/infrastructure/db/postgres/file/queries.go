package file

const (
	SelectFiles = `
		SELECT id, uuid, owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url, created_at, updated_at, deleted_at
		FROM files
		WHERE owner_uuid = $1 AND deleted_at IS NULL
		ORDER BY id
		LIMIT 50 OFFSET ( ($2 - 1) * 50 )
	`
	SelectFileByID = `
		SELECT id, uuid, owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url, created_at, updated_at, deleted_at
		FROM files
		WHERE uuid = $1 AND deleted_at IS NULL
	`
	UpsertFile = `
		INSERT INTO files (owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (storage_key) DO UPDATE
		SET size_bytes = EXCLUDED.size_bytes,
		    updated_at = now()
		RETURNING
		  id, uuid, owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url, created_at, updated_at, deleted_at
	`
	UpdateFileByUUID = `
		UPDATE files
		SET file_name   = COALESCE($3, file_name),
		    storage_key = COALESCE($4, storage_key),
		    size_bytes  = COALESCE($5, size_bytes),
		    updated_at  = now()
		WHERE uuid = $1 AND owner_uuid = $2 AND deleted_at IS NULL
		RETURNING
		  id, uuid, owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url, created_at, updated_at, deleted_at
	`
	SoftDeleteFileByUUID = `
		UPDATE files
		SET deleted_at = now()
		WHERE uuid = $1 AND owner_uuid = $2 AND deleted_at IS NULL
		RETURNING
		  id, uuid, owner_uuid, bucket, storage_key, file_name, mime_type, size_bytes, download_url, created_at, updated_at, deleted_at
	`
)
