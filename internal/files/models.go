package files

import "time"

type FileStatus string

const (
	FileQueued      FileStatus = "Queued"
	FileProcessed   FileStatus = "Processed"
	FileFailed      FileStatus = "Failed"
	FileUnsupported FileStatus = "Unsupported File Type"
)

// File is one processed upload in the registry. ID is the hex sha-256 of the
// content, so re-uploading identical bytes converges on one row.
type File struct {
	ID            string     `gorm:"primaryKey;size:64" json:"file_id"`
	Name          string     `gorm:"size:255;not null" json:"file_name"`
	MimeType      string     `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes     int64      `gorm:"not null" json:"size_bytes"`
	Status        FileStatus `gorm:"type:varchar(32);index;not null" json:"status"`
	ExtractedText string     `gorm:"type:text" json:"-"`
	Error         *string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (File) TableName() string { return "files" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// ExtractionJob is one queued extraction for the async upload path. Payload
// holds the raw bytes until a worker picks the job up.
type ExtractionJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	FileID   string `gorm:"size:64;index;not null"`
	MimeType string `gorm:"size:128;not null"`
	Payload  []byte `gorm:"type:blob"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ExtractionJob) TableName() string { return "extraction_jobs" }

// Result is the per-file response shape of the upload endpoints.
type Result struct {
	Type          string `json:"type"`
	Text          string `json:"text"`
	Status        string `json:"status"`
	FileName      string `json:"file_name"`
	ExtractedText string `json:"extracted_text,omitempty"`
	FileID        string `json:"file_id,omitempty"`
	Error         string `json:"error,omitempty"`
}
