package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintel/src/infrastructure/job"
	"docintel/src/storage/minioctrl"
)

// UploadDocument accepts a PDF, stores it in object storage and enqueues a
// background indexing job. Extraction and embedding happen in the worker.
func (h *Handler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("no file uploaded"))
		return
	}
	defer file.Close()

	if filepath.Ext(header.Filename) != ".pdf" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("only PDF files are allowed"))
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err))
		return
	}

	ctx := c.Request.Context()

	if err := h.minioService.EnsureBucketExists(ctx, h.documentsBucket); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	objectName := fmt.Sprintf("%s.pdf", uuid.New().String())
	if err := h.minioService.PutObject(ctx, h.documentsBucket, objectName, fileBytes, "application/pdf"); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	document, err := h.documentService.Create(ctx, header.Filename, minioctrl.ObjectURL(h.documentsBucket, objectName))
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	payload, err := json.Marshal(job.IndexDocumentPayload{DocumentID: document.ID})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	indexJob, err := h.jobService.EnqueueJob(ctx, job.TaskTypeIndexDocument, document.ID, payload)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       document.ID,
		"filename": document.Filename,
		"status":   document.Status,
		"job_id":   indexJob.ID,
	})
}

// ListDocuments returns a paginated list of documents
func (h *Handler) ListDocuments(c *gin.Context) {
	limit := 10
	offset := 0

	if limitParam := c.Query("limit"); limitParam != "" {
		if _, err := fmt.Sscanf(limitParam, "%d", &limit); err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("invalid limit parameter"))
			return
		}
	}

	if offsetParam := c.Query("offset"); offsetParam != "" {
		if _, err := fmt.Sscanf(offsetParam, "%d", &offset); err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("invalid offset parameter"))
			return
		}
	}

	documents, err := h.documentService.List(c.Request.Context(), limit, offset)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetJob returns the status of a background job
func (h *Handler) GetJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("invalid job id"))
		return
	}

	j, err := h.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	if j == nil {
		sendError(c, http.StatusNotFound, fmt.Errorf("job not found: %d", id))
		return
	}

	c.JSON(http.StatusOK, j)
}
