package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"file-manager-api/internal/application/ports"
	domain "file-manager-api/internal/domain/file"
	"file-manager-api/internal/infrastructure/jobstatus"
	"file-manager-api/internal/infrastructure/mq"
)

const maxBaseNameLen = 100

// ceiling for the base64-encoded payload; queue transports have message
// size limits and a too-big job must fail loudly at enqueue, not truncate
const maxEncodedPayload = 16 << 20

var (
	windowsReserved = map[string]struct{}{
		"con": {}, "prn": {}, "aux": {}, "nul": {},
		"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
		"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
	}
	fileSafeRe    = regexp.MustCompile(`[^A-Za-z0-9\.\_\- ]+`)
	leadingDotsRe = regexp.MustCompile(`^\.+`)
)

type FileService struct {
	storage        ports.ObjectStorage
	fileRepository domain.Repository
	mq             ports.RabbitMQ
	status         ports.JobStatusStore
	mCounter       *prometheus.CounterVec
	logger         *zap.Logger
}

func NewFileService(
	storage ports.ObjectStorage,
	fileRepository domain.Repository,
	mq ports.RabbitMQ,
	status ports.JobStatusStore,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) ports.FileService {
	return &FileService{
		storage:        storage,
		fileRepository: fileRepository,
		mq:             mq,
		status:         status,
		mCounter:       mCounter,
		logger:         logger,
	}
}

func (fs *FileService) FindFiles(ctx context.Context, ownerUUID domain.UUID, page int) (domain.Files, error) {
	fls, err := fs.fileRepository.FetchFiles(ctx, ownerUUID, page)
	if err != nil {
		return nil, err
	}

	return fls, nil
}

// EnqueueUpload never touches the record store; it hands the payload to the
// publisher worker and returns. The caller observes the record later via
// FindFiles or the job status.
func (fs *FileService) EnqueueUpload(
	ctx context.Context,
	ownerUUID domain.UUID,
	in *multipart.FileHeader,
) (uuid.UUID, error) {
	f, err := in.Open()
	if err != nil {
		return uuid.Nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read multipart payload: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	if len(encoded) > maxEncodedPayload {
		return uuid.Nil, domain.ErrPayloadTooLarge
	}

	jobID := uuid.New()
	fileName := filepath.Base(sanitizeFileName(in.Filename))
	mimeType := in.Header.Get("Content-Type")

	job := mq.Job{
		ID:         jobID,
		TS:         time.Now(),
		Kind:       mq.KindUpload,
		OwnerID:    ownerUUID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  uint64(len(content)),
		StorageKey: genStorageKey(ownerUUID, jobID, fileName, mimeType),
		Content:    encoded,
	}

	// status is an observability hook, not part of the enqueue contract
	if err = fs.status.SetStatus(ctx, jobID, jobstatus.StatusQueued); err != nil {
		fs.logger.Warn("job status write failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
	}

	fs.mq.GetInputChan() <- job

	fs.mCounter.WithLabelValues("files_enqueued_total").Inc()

	return jobID, nil
}

func (fs *FileService) UpdateFile(
	ctx context.Context,
	ownerUUID, fileUUID domain.UUID,
	upd domain.Update,
) (*domain.File, error) {
	existing, err := fs.fileRepository.FetchFileByID(ctx, fileUUID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	if existing.OwnerUUID != ownerUUID {
		return nil, domain.ErrForbidden
	}

	// the UPDATE is keyed on uuid+owner, so the ownership check holds even
	// against a concurrent delete
	out, err := fs.fileRepository.UpdateFile(ctx, fileUUID, ownerUUID, upd)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domain.ErrNotFound
	}

	fs.mCounter.WithLabelValues("files_updated_total").Inc()

	return out, nil
}

func (fs *FileService) DeleteFile(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
	existing, err := fs.fileRepository.FetchFileByID(ctx, fileUUID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	if existing.OwnerUUID != ownerUUID {
		return domain.ErrForbidden
	}

	deleted, err := fs.fileRepository.DeleteFile(ctx, fileUUID, ownerUUID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return domain.ErrNotFound
	}

	// the record is gone; losing the bytes removal only leaves an orphaned
	// object, which must not fail the request
	if err = fs.storage.RemoveObject(ctx, deleted.StorageKey); err != nil {
		fs.logger.Error("stored object removal failed, object orphaned",
			zap.String("storage_key", deleted.StorageKey),
			zap.Error(err),
		)
	}

	fs.mCounter.WithLabelValues("files_deleted_total").Inc()

	return nil
}

func (fs *FileService) JobStatus(ctx context.Context, jobID uuid.UUID) (string, error) {
	return fs.status.GetStatus(ctx, jobID)
}

// genStorageKey: "uploads/<owner>/<job id>/<filename>.ext" — the job id
// makes the key collision-resistant across same-named uploads and keeps it
// stable across queue redeliveries.
func genStorageKey(ownerUUID domain.UUID, jobID uuid.UUID, fileName, mimeType string) string {
	clean := strings.TrimSpace(fileName)
	clean = strings.Map(func(r rune) rune {
		if r == '\x00' || r < 0x20 {
			return -1
		}
		return r
	}, clean)
	clean = leadingDotsRe.ReplaceAllString(clean, "")

	ext := strings.ToLower(filepath.Ext(clean))
	base := strings.TrimSuffix(clean, ext)

	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	base = fileSafeRe.ReplaceAllString(base, "-")
	base = strings.Trim(base, "- .")

	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}

	if base == "" {
		base = "file"
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "" {
		ext = ".bin"
	}

	return fmt.Sprintf(
		"uploads/%s/%s/%s",
		strings.ToLower(strings.ReplaceAll(ownerUUID.String(), "-", "")),
		jobID.String(),
		base+ext,
	)
}

// sanitizeFileName make file name ASCII standard
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	ext := strings.ToLower(path.Ext(s))
	base := strings.TrimSuffix(s, ext)

	//  [a-z0-9], '-' и '_', dot/space → '-'
	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_':
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		case r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		default:
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if _, bad := windowsReserved[base]; bad {
		base = "_" + base
	}

	for utf8.RuneCountInString(base)+len(ext) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		if size <= 0 || size > len(base) {
			break
		}
		base = base[:len(base)-size]
	}

	return base + ext
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
