package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuchat/gateway/internal/common"
	"github.com/docuchat/gateway/internal/files"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 20 << 20

// UploadFiles extracts text from every file in the multipart batch and
// returns the per-file results in upload order. A failing file only fails
// itself.
func (h *Handler) UploadFiles(c *gin.Context) {
	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}

	results := h.Files.ProcessBatch(c.Request.Context(), uploads)
	common.OK(c, gin.H{"files": results})
}

// UploadFilesAsync queues each file as an extraction job and returns the job
// ids; results are fetched later via the job endpoint.
func (h *Handler) UploadFilesAsync(c *gin.Context) {
	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}

	jobs := make([]gin.H, 0, len(uploads))
	for _, up := range uploads {
		jobID, fileID, err := h.Files.EnqueueExtraction(c.Request.Context(), up)
		if err != nil {
			h.Log.Error().Err(err).Str("file_name", up.Name).Msg("enqueue extraction failed")
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
		jobs = append(jobs, gin.H{
			"job_id":    jobID,
			"file_id":   fileID,
			"file_name": up.Name,
		})
	}

	common.OK(c, gin.H{"jobs": jobs})
}

func (h *Handler) readUploads(c *gin.Context) ([]files.Upload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid multipart form")
		return nil, false
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "no files provided")
		return nil, false
	}

	uploads := make([]files.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			common.Fail(c, http.StatusRequestEntityTooLarge, 10003, "file too large: "+fh.Filename)
			return nil, false
		}
		data, err := readFileHeader(fh)
		if err != nil {
			h.Log.Error().Err(err).Str("file_name", fh.Filename).Msg("reading upload failed")
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to read upload")
			return nil, false
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		uploads = append(uploads, files.Upload{
			Name:     fh.Filename,
			MimeType: mimeType,
			Data:     data,
		})
	}
	return uploads, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
