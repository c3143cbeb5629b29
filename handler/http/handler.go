package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docintel/src/core/qa"
	"docintel/src/core/system"
	"docintel/src/infrastructure/job"
	"docintel/src/storage/minioctrl"
	"docintel/src/storage/postgres/documentctrl"
)

type Handler struct {
	qaService       *qa.Service
	documentService *documentctrl.DocumentService
	minioService    *minioctrl.MinioService
	jobService      *job.JobService
	systemService   *system.Service
	documentsBucket string
}

func NewHandler(
	qaService *qa.Service,
	documentService *documentctrl.DocumentService,
	minioService *minioctrl.MinioService,
	jobService *job.JobService,
	systemService *system.Service,
	documentsBucket string,
) *Handler {
	return &Handler{
		qaService:       qaService,
		documentService: documentService,
		minioService:    minioService,
		jobService:      jobService,
		systemService:   systemService,
		documentsBucket: documentsBucket,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	// Document routes
	api.POST("/documents", h.UploadDocument)
	api.GET("/documents", h.ListDocuments)

	// Job routes
	api.GET("/jobs/:id", h.GetJob)

	// Question routes
	api.POST("/questions", h.AskQuestion)
	api.GET("/chat/history", h.GetChatHistory)

	// System routes
	api.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, qa.ErrEmptyQuestion):
		code = "INVALID_REQUEST"
		status = http.StatusBadRequest
	case status == http.StatusBadRequest:
		code = "INVALID_REQUEST"
	case status == http.StatusNotFound:
		code = "NOT_FOUND"
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}
