package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/docuchat/gateway/internal/common"
)

// GetExtractionJob reports the status of one queued extraction, including
// the extracted text once the worker has finished.
func (h *Handler) GetExtractionJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.Files.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	resp := gin.H{
		"job": gin.H{
			"id":         j.ID,
			"file_id":    j.FileID,
			"status":     j.Status,
			"error":      j.Error,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		},
	}

	if f, err := h.Files.GetFile(c.Request.Context(), j.FileID); err == nil {
		resp["file"] = gin.H{
			"id":             f.ID,
			"name":           f.Name,
			"mime_type":      f.MimeType,
			"status":         f.Status,
			"extracted_text": f.ExtractedText,
			"error":          f.Error,
		}
	}

	common.OK(c, resp)
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}
