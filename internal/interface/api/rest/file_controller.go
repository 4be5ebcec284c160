package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-manager-api/internal/application/ports"
	domain "file-manager-api/internal/domain/file"
	"file-manager-api/internal/infrastructure/jwt"
	dto "file-manager-api/internal/interface/api/rest/dto/file"
	"file-manager-api/internal/interface/api/rest/middleware"
	"file-manager-api/internal/interface/api/rest/validator"
)

// 10MB
const maxSize = int64(10 << 20)

type FileController struct {
	fileService ports.FileService
	logger      *zap.Logger
}

func NewFileController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *FileController {
	fc := &FileController{
		fileService: fileService,
		logger:      logger,
	}

	auth := middleware.AuthMiddleware(jwtService)
	r.POST(RouteFiles, auth, fc.UploadFileHandler)
	r.GET(RouteFiles, auth, fc.GetFilesHandler)
	r.PUT(RouteFile, auth, fc.UpdateFileHandler)
	r.DELETE(RouteFile, auth, fc.DeleteFileHandler)

	return fc
}

// ownerID pulls the authenticated identity injected by the auth
// middleware; a missing or malformed identity ends the request with 401.
func ownerID(c *gin.Context) (domain.UUID, bool) {
	ok, owner := validator.IsUUID(c.GetString(middleware.CtxUserID))
	if !ok {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			gin.H{"message": "no user information found"},
		)
		return owner, false
	}
	return owner, true
}

// UploadFileHandler accepts the multipart payload and enqueues it; 201
// means accepted for processing, not stored. The record appears in the
// list endpoint once a worker finishes the job.
func (fc *FileController) UploadFileHandler(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no file uploaded"})
		return
	}
	if fh.Size <= 0 || fh.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large or empty"})
		return
	}

	jobID, err := fc.fileService.EnqueueUpload(c.Request.Context(), owner, fh)
	if err != nil {
		if errors.Is(err, domain.ErrPayloadTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large for processing"})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "failed to queue file upload"},
		)
		fc.logger.Error("EnqueueUpload() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, dto.AcceptedResponse{
		Message: "file upload accepted for processing",
		JobID:   jobID,
	})
}

func (fc *FileController) GetFilesHandler(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	page, err := validator.ValidatePage(c.Query("page"))
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"message": err.Error()},
		)
		return
	}

	files, err := fc.fileService.FindFiles(c.Request.Context(), owner, page)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "failed to get files"},
		)
		fc.logger.Error("FindFiles() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Files: dto.ToResponseFiles(files),
	})
}

func (fc *FileController) UpdateFileHandler(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	ok, fileUUID := validator.IsUUID(c.Param("file_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"message": "file_id must be a valid UUID"},
		)
		return
	}

	var req dto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request body",
			"error":   err.Error(),
		})
		return
	}

	f, err := fc.fileService.UpdateFile(c.Request.Context(), owner, fileUUID, dto.ToDomainUpdate(req))
	if err != nil {
		fc.respondFileError(c, err, "failed to update a file", "UpdateFile()")
		return
	}

	c.JSON(http.StatusOK, dto.UpdatedResponse{
		Message: "file updated successfully",
		File:    dto.ToResponseFile(*f),
	})
}

func (fc *FileController) DeleteFileHandler(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	ok, fileUUID := validator.IsUUID(c.Param("file_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"message": "file_id must be a valid UUID"},
		)
		return
	}

	if err := fc.fileService.DeleteFile(c.Request.Context(), owner, fileUUID); err != nil {
		fc.respondFileError(c, err, "failed to delete a file", "DeleteFile()")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted successfully"})
}

func (fc *FileController) respondFileError(c *gin.Context, err error, fallback, op string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "you are not the owner of this file"})
	case errors.Is(err, domain.ErrStorageKeyTaken):
		c.JSON(http.StatusBadRequest, gin.H{"message": "path already in use"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
		fc.logger.Error(op+" error", zap.Error(err))
	}
}
