// Package files implements the upload-side file pipeline: synchronous batch
// extraction for the upload endpoint, and queued extraction jobs consumed by
// the worker.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/common"
	"github.com/docuchat/gateway/internal/extract"
)

// Publisher enqueues an extraction job id for a worker to pick up.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	repo      *Repo
	extractor *extract.Extractor
	pub       Publisher
	log       zerolog.Logger
}

// NewService builds the file pipeline. pub may be nil when the async path is
// disabled (worker-less deployments).
func NewService(repo *Repo, extractor *extract.Extractor, pub Publisher, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		extractor: extractor,
		pub:       pub,
		log:       log.With().Str("component", "files").Logger(),
	}
}

// Upload is one file of a multipart batch.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// ProcessBatch extracts every upload concurrently and returns results in
// input order. One failing file reports its own failed status and never
// aborts the rest of the batch.
func (s *Service) ProcessBatch(ctx context.Context, uploads []Upload) []Result {
	results := make([]Result, len(uploads))

	var wg sync.WaitGroup
	wg.Add(len(uploads))
	for i, up := range uploads {
		go func(i int, up Upload) {
			defer wg.Done()
			results[i] = s.processOne(ctx, up)
		}(i, up)
	}
	wg.Wait()

	return results
}

func (s *Service) processOne(ctx context.Context, up Upload) Result {
	fileID := contentID(up.Data)

	text, err := s.extractor.Extract(ctx, up.Data, up.MimeType)
	if err != nil {
		status := FileFailed
		var f *extract.Failure
		if errors.As(err, &f) && f.Kind == extract.KindUnsupported {
			status = FileUnsupported
		}
		s.log.Warn().Err(err).Str("file_name", up.Name).Str("mime_type", up.MimeType).Msg("extraction failed")
		s.recordFile(ctx, up, fileID, status, "", err.Error())
		return Result{
			Type:     "file",
			Text:     "Processing Failed",
			Status:   string(status),
			FileName: up.Name,
			FileID:   fileID,
			Error:    err.Error(),
		}
	}

	s.recordFile(ctx, up, fileID, FileProcessed, text, "")
	return Result{
		Type:          resultType(up.MimeType),
		Text:          categoryLabel(up.MimeType),
		Status:        string(FileProcessed),
		FileName:      up.Name,
		ExtractedText: text,
		FileID:        fileID,
	}
}

// EnqueueExtraction stores the raw bytes as a queued job and publishes its
// id. Returns the job id and the content-derived file id.
func (s *Service) EnqueueExtraction(ctx context.Context, up Upload) (jobID, fileID string, err error) {
	if s.pub == nil {
		return "", "", errors.New("async extraction is not configured")
	}

	fileID = contentID(up.Data)
	jobID, err = common.NewULID()
	if err != nil {
		return "", "", err
	}

	s.recordFile(ctx, up, fileID, FileQueued, "", "")

	job := &ExtractionJob{
		ID:       jobID,
		FileID:   fileID,
		MimeType: up.MimeType,
		Payload:  up.Data,
		Status:   JobQueued,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return "", "", err
	}
	if err := s.pub.PublishJob(ctx, jobID); err != nil {
		return "", "", err
	}
	return jobID, fileID, nil
}

// RunJob executes one queued extraction. Called by the worker.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	file, err := s.repo.GetFile(ctx, job.FileID)
	if err != nil {
		return err
	}

	text, err := s.extractor.Extract(ctx, job.Payload, job.MimeType)
	if err != nil {
		status := FileFailed
		var f *extract.Failure
		if errors.As(err, &f) && f.Kind == extract.KindUnsupported {
			status = FileUnsupported
		}
		s.recordFile(ctx, Upload{Name: file.Name, MimeType: file.MimeType, Data: job.Payload}, job.FileID, status, "", err.Error())
		if markErr := s.repo.MarkJobFailed(ctx, jobID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	s.recordFile(ctx, Upload{Name: file.Name, MimeType: file.MimeType, Data: job.Payload}, job.FileID, FileProcessed, text, "")
	return s.repo.MarkJobSucceeded(ctx, jobID)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*ExtractionJob, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

func (s *Service) GetFile(ctx context.Context, fileID string) (*File, error) {
	return s.repo.GetFile(ctx, fileID)
}

func (s *Service) recordFile(ctx context.Context, up Upload, fileID string, status FileStatus, text, errMsg string) {
	row := &File{
		ID:            fileID,
		Name:          up.Name,
		MimeType:      up.MimeType,
		SizeBytes:     int64(len(up.Data)),
		Status:        status,
		ExtractedText: text,
	}
	if errMsg != "" {
		row.Error = &errMsg
	}
	if err := s.repo.UpsertFile(ctx, row); err != nil {
		// The registry is bookkeeping; extraction results still flow to the
		// caller when a write fails.
		s.log.Error().Err(err).Str("file_id", fileID).Msg("registry write failed")
	}
}

func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func resultType(mime string) string {
	if strings.HasPrefix(strings.ToLower(mime), "image/") {
		return "image"
	}
	return "file"
}

func categoryLabel(mime string) string {
	m := strings.ToLower(mime)
	switch {
	case strings.HasPrefix(m, "image/"):
		return "Image file (OCR)"
	case m == extract.MimePDF:
		return "PDF Document"
	case m == extract.MimeDocx || m == extract.MimeDoc:
		return "Word Document"
	default:
		return "Text File"
	}
}
