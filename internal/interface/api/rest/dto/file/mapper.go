package file

import (
	domain "file-manager-api/internal/domain/file"
)

func ToResponseFile(fDomain domain.File) File {
	var f = File{
		UUID:        fDomain.UUID,
		FileName:    fDomain.FileName,
		MimeType:    fDomain.MimeType,
		SizeBytes:   fDomain.SizeBytes,
		StorageKey:  fDomain.StorageKey,
		DownloadURL: fDomain.DownloadURL,
		CreatedAt:   fDomain.CreatedAt,
		UpdatedAt:   fDomain.UpdatedAt,
	}

	return f
}

func ToResponseFiles(fDomain domain.Files) Files {
	fs := make(Files, len(fDomain))
	for idx, f := range fDomain {
		fs[idx] = ToResponseFile(*f)
	}

	return fs
}

func ToDomainUpdate(req UpdateRequest) domain.Update {
	return domain.Update{
		FileName:   req.Name,
		StorageKey: req.Path,
		SizeBytes:  req.Size,
	}
}
