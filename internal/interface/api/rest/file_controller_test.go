// file_controller_test.go
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"file-manager-api/internal/application/ports"
	domain "file-manager-api/internal/domain/file"
	jwtSvc "file-manager-api/internal/infrastructure/jwt"
)

type FakeFileService struct {
	EnqueueUploadFunc func(ctx context.Context, ownerUUID domain.UUID, fh *multipart.FileHeader) (uuid.UUID, error)
	FindFilesFunc     func(ctx context.Context, ownerUUID domain.UUID, page int) (domain.Files, error)
	UpdateFileFunc    func(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error)
	DeleteFileFunc    func(ctx context.Context, ownerUUID, fileUUID domain.UUID) error
	JobStatusFunc     func(ctx context.Context, jobID uuid.UUID) (string, error)
}

func (f *FakeFileService) EnqueueUpload(ctx context.Context, ownerUUID domain.UUID, fh *multipart.FileHeader) (uuid.UUID, error) {
	if f.EnqueueUploadFunc == nil {
		return uuid.Nil, errors.New("not used")
	}
	return f.EnqueueUploadFunc(ctx, ownerUUID, fh)
}
func (f *FakeFileService) FindFiles(ctx context.Context, ownerUUID domain.UUID, page int) (domain.Files, error) {
	if f.FindFilesFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FindFilesFunc(ctx, ownerUUID, page)
}
func (f *FakeFileService) UpdateFile(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error) {
	if f.UpdateFileFunc == nil {
		return nil, errors.New("not used")
	}
	return f.UpdateFileFunc(ctx, ownerUUID, fileUUID, upd)
}
func (f *FakeFileService) DeleteFile(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
	if f.DeleteFileFunc == nil {
		return errors.New("not used")
	}
	return f.DeleteFileFunc(ctx, ownerUUID, fileUUID)
}
func (f *FakeFileService) JobStatus(ctx context.Context, jobID uuid.UUID) (string, error) {
	if f.JobStatusFunc == nil {
		return "", errors.New("not used")
	}
	return f.JobStatusFunc(ctx, jobID)
}

func SignJWT(secret, userID, role string, exp time.Duration) (string, error) {
	claims := jwtSvc.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func setupRouterFC(t *testing.T, fs ports.FileService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	secret := "test-secret"
	NewFileController(r, fs, zap.NewNop(), jwtSvc.New(secret))

	return r, secret
}

func authHeaders(t *testing.T, secret string, ownerUUID uuid.UUID) map[string]string {
	t.Helper()
	tok, err := SignJWT(secret, ownerUUID.String(), "user", time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func doFileReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	case []byte:
		reader = bytes.NewReader(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		if _, isStr := body.(string); !isStr {
			if _, isBytes := body.([]byte); !isBytes {
				req.Header.Set("Content-Type", "application/json")
			}
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doMultipartReq(t *testing.T, r *gin.Engine, method, path string, fileField, fileName string, fileContent []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if fileField != "" && fileName != "" && fileContent != nil {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, _ = fw.Write(fileContent)
	}

	require.NoError(t, w.Close())

	req, err := http.NewRequest(method, path, &b)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestFileController_UploadFileHandler(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	tests := []struct {
		name       string
		headers    func(t *testing.T, secret string) map[string]string
		fileField  string
		fileName   string
		fileBytes  []byte
		mockFS     func() ports.FileService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "401 missing Authorization",
			headers:    func(t *testing.T, secret string) map[string]string { return nil },
			fileField:  "file",
			fileName:   "doc.pdf",
			fileBytes:  []byte("pdf-bytes"),
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "missing Authorization header",
		},
		{
			name: "401 invalid format",
			headers: func(t *testing.T, secret string) map[string]string {
				return map[string]string{"Authorization": "Token abc"}
			},
			fileField:  "file",
			fileName:   "doc.pdf",
			fileBytes:  []byte("pdf-bytes"),
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "invalid token format",
		},
		{
			name: "401 bad signature",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, "other-secret", owner)
			},
			fileField:  "file",
			fileName:   "doc.pdf",
			fileBytes:  []byte("pdf-bytes"),
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "invalid token",
		},
		{
			name: "401 identity is not a uuid",
			headers: func(t *testing.T, secret string) map[string]string {
				tok, err := SignJWT(secret, "not-a-uuid", "user", time.Hour)
				require.NoError(t, err)
				return map[string]string{"Authorization": "Bearer " + tok}
			},
			fileField:  "file",
			fileName:   "doc.pdf",
			fileBytes:  []byte("pdf-bytes"),
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "no user information found",
		},
		{
			name: "400 no file part",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, secret, owner)
			},
			fileField:  "",
			fileName:   "",
			fileBytes:  nil,
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "no file uploaded",
		},
		{
			name: "413 empty file",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, secret, owner)
			},
			fileField:  "file",
			fileName:   "empty.txt",
			fileBytes:  []byte{},
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    "file too large or empty",
		},
		{
			name: "413 payload over queue limit",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, secret, owner)
			},
			fileField: "file",
			fileName:  "big.bin",
			fileBytes: []byte("content"),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					EnqueueUploadFunc: func(ctx context.Context, ownerUUID domain.UUID, fh *multipart.FileHeader) (uuid.UUID, error) {
						return uuid.Nil, domain.ErrPayloadTooLarge
					},
				}
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    "file too large for processing",
		},
		{
			name: "500 enqueue error",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, secret, owner)
			},
			fileField: "file",
			fileName:  "doc.pdf",
			fileBytes: []byte("content"),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					EnqueueUploadFunc: func(ctx context.Context, ownerUUID domain.UUID, fh *multipart.FileHeader) (uuid.UUID, error) {
						return uuid.Nil, errors.New("mq down")
					},
				}
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "failed to queue file upload",
		},
		{
			name: "201 accepted",
			headers: func(t *testing.T, secret string) map[string]string {
				return authHeaders(t, secret, owner)
			},
			fileField: "file",
			fileName:  "testfile.txt",
			fileBytes: []byte("eighteen-byte-body"),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					EnqueueUploadFunc: func(ctx context.Context, ownerUUID domain.UUID, fh *multipart.FileHeader) (uuid.UUID, error) {
						assert.Equal(t, owner, ownerUUID)
						assert.Equal(t, "testfile.txt", fh.Filename)
						assert.Equal(t, int64(18), fh.Size)
						return jobID, nil
					},
				}
			},
			wantStatus: http.StatusCreated,
			wantMsg:    "file upload accepted for processing",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, secret := setupRouterFC(t, tt.mockFS())

			rr := doMultipartReq(t, r, http.MethodPost, RouteFiles,
				tt.fileField, tt.fileName, tt.fileBytes, tt.headers(t, secret))

			require.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &resp)
			assert.Equal(t, tt.wantMsg, resp["message"])
			if rr.Code == http.StatusCreated {
				assert.Equal(t, jobID.String(), resp["job_id"])
			}
		})
	}
}

func TestFileController_GetFilesHandler(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name       string
		page       string
		mockFS     func() ports.FileService
		wantStatus int
		wantMsg    string
		wantFiles  int
	}{
		{
			name:       "400 invalid page",
			page:       "abc",
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid page",
		},
		{
			name: "500 service error",
			page: "2",
			mockFS: func() ports.FileService {
				return &FakeFileService{
					FindFilesFunc: func(ctx context.Context, ownerUUID domain.UUID, page int) (domain.Files, error) {
						return nil, errors.New("db error")
					},
				}
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "failed to get files",
		},
		{
			name: "200 only the caller's files",
			page: "1",
			mockFS: func() ports.FileService {
				return &FakeFileService{
					FindFilesFunc: func(ctx context.Context, ownerUUID domain.UUID, page int) (domain.Files, error) {
						require.Equal(t, owner, ownerUUID)
						return domain.Files{
							{UUID: uuid.New(), OwnerUUID: owner, FileName: "a.txt", SizeBytes: 18},
							{UUID: uuid.New(), OwnerUUID: owner, FileName: "b.txt", SizeBytes: 7},
						}, nil
					},
				}
			},
			wantStatus: http.StatusOK,
			wantFiles:  2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, secret := setupRouterFC(t, tt.mockFS())
			rr := doFileReq(t, r, http.MethodGet, RouteFiles+"?page="+tt.page, nil, authHeaders(t, secret, owner))
			require.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &resp)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp["message"])
			}
			if tt.wantStatus == http.StatusOK {
				files, ok := resp["files"].([]any)
				require.True(t, ok)
				assert.Len(t, files, tt.wantFiles)
			}
		})
	}
}

func TestFileController_UpdateFileHandler(t *testing.T) {
	owner := uuid.New()
	fileID := uuid.New()
	newName := "renamed.txt"

	tests := []struct {
		name       string
		fileID     string
		body       any
		mockFS     func() ports.FileService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "400 invalid uuid",
			fileID:     "not-uuid",
			body:       map[string]any{"name": newName},
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "file_id must be a valid UUID",
		},
		{
			name:       "400 malformed body",
			fileID:     fileID.String(),
			body:       "{not-json",
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid request body",
		},
		{
			name:   "404 unknown file",
			fileID: fileID.String(),
			body:   map[string]any{"name": newName},
			mockFS: func() ports.FileService {
				return &FakeFileService{
					UpdateFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error) {
						return nil, domain.ErrNotFound
					},
				}
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "file not found",
		},
		{
			name:   "403 wrong owner",
			fileID: fileID.String(),
			body:   map[string]any{"name": newName},
			mockFS: func() ports.FileService {
				return &FakeFileService{
					UpdateFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error) {
						return nil, domain.ErrForbidden
					},
				}
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "you are not the owner of this file",
		},
		{
			name:   "400 storage key taken",
			fileID: fileID.String(),
			body:   map[string]any{"path": "uploads/dup"},
			mockFS: func() ports.FileService {
				return &FakeFileService{
					UpdateFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error) {
						return nil, domain.ErrStorageKeyTaken
					},
				}
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "path already in use",
		},
		{
			name:   "200 updated",
			fileID: fileID.String(),
			body:   map[string]any{"name": newName, "size": 42},
			mockFS: func() ports.FileService {
				return &FakeFileService{
					UpdateFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID, upd domain.Update) (*domain.File, error) {
						require.Equal(t, owner, ownerUUID)
						require.Equal(t, fileID, fileUUID)
						require.NotNil(t, upd.FileName)
						assert.Equal(t, newName, *upd.FileName)
						require.NotNil(t, upd.SizeBytes)
						assert.Equal(t, uint64(42), *upd.SizeBytes)
						assert.Nil(t, upd.StorageKey)
						return &domain.File{UUID: fileUUID, OwnerUUID: ownerUUID, FileName: newName, SizeBytes: 42}, nil
					},
				}
			},
			wantStatus: http.StatusOK,
			wantMsg:    "file updated successfully",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, secret := setupRouterFC(t, tt.mockFS())
			rr := doFileReq(t, r, http.MethodPut, RouteFiles+"/"+tt.fileID, tt.body, authHeaders(t, secret, owner))
			require.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &resp)
			assert.Equal(t, tt.wantMsg, resp["message"])
			if rr.Code == http.StatusOK {
				file, ok := resp["file"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, newName, file["file_name"])
			}
		})
	}
}

func TestFileController_DeleteFileHandler(t *testing.T) {
	owner := uuid.New()
	fileID := uuid.New()

	tests := []struct {
		name       string
		fileID     string
		mockFS     func() ports.FileService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "400 invalid uuid",
			fileID:     "not-uuid",
			mockFS:     func() ports.FileService { return &FakeFileService{} },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "file_id must be a valid UUID",
		},
		{
			name:   "404 unknown file",
			fileID: fileID.String(),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					DeleteFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
						return domain.ErrNotFound
					},
				}
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "file not found",
		},
		{
			name:   "403 wrong owner",
			fileID: fileID.String(),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					DeleteFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
						return domain.ErrForbidden
					},
				}
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "you are not the owner of this file",
		},
		{
			name:   "500 service error",
			fileID: fileID.String(),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					DeleteFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
						return errors.New("db error")
					},
				}
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "failed to delete a file",
		},
		{
			name:   "200 deleted",
			fileID: fileID.String(),
			mockFS: func() ports.FileService {
				return &FakeFileService{
					DeleteFileFunc: func(ctx context.Context, ownerUUID, fileUUID domain.UUID) error {
						require.Equal(t, owner, ownerUUID)
						require.Equal(t, fileID, fileUUID)
						return nil
					},
				}
			},
			wantStatus: http.StatusOK,
			wantMsg:    "file deleted successfully",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, secret := setupRouterFC(t, tt.mockFS())
			rr := doFileReq(t, r, http.MethodDelete, RouteFiles+"/"+tt.fileID, nil, authHeaders(t, secret, owner))
			require.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &resp)
			assert.Equal(t, tt.wantMsg, resp["message"])
		})
	}
}
