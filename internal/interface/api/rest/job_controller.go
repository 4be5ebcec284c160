package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-manager-api/internal/application/ports"
	"file-manager-api/internal/infrastructure/jobstatus"
	"file-manager-api/internal/infrastructure/jwt"
	dto "file-manager-api/internal/interface/api/rest/dto/file"
	"file-manager-api/internal/interface/api/rest/middleware"
	"file-manager-api/internal/interface/api/rest/validator"
)

// JobController exposes upload job status; the upload endpoint itself is
// fire-and-forget, this is the only window into a job's fate.
type JobController struct {
	fileService ports.FileService
	logger      *zap.Logger
}

func NewJobController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *JobController {
	jc := &JobController{
		fileService: fileService,
		logger:      logger,
	}

	r.GET(RouteJob, middleware.AuthMiddleware(jwtService), jc.GetJobHandler)

	return jc
}

func (jc *JobController) GetJobHandler(c *gin.Context) {
	if _, ok := ownerID(c); !ok {
		return
	}

	ok, jobID := validator.IsUUID(c.Param("job_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"message": "job_id must be a valid UUID"},
		)
		return
	}

	status, err := jc.fileService.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobstatus.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"message": "job not found"})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "failed to get job status"},
		)
		jc.logger.Error("JobStatus() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:  jobID,
		Status: status,
	})
}
